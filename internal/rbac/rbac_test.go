package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		action Action
		allow  bool
	}{
		{name: "citizen submit", role: RoleCitizen, action: ActionSubmitComplaint, allow: true},
		{name: "citizen assign", role: RoleCitizen, action: ActionAssignComplaint, allow: false},
		{name: "citizen vote", role: RoleCitizen, action: ActionVote, allow: true},
		{name: "volunteer update status", role: RoleVolunteer, action: ActionUpdateStatus, allow: true},
		{name: "volunteer assign", role: RoleVolunteer, action: ActionAssignComplaint, allow: false},
		{name: "volunteer submit", role: RoleVolunteer, action: ActionSubmitComplaint, allow: false},
		{name: "official update status", role: RoleOfficial, action: ActionUpdateStatus, allow: true},
		{name: "official view all", role: RoleOfficial, action: ActionViewAllComplaints, allow: false},
		{name: "admin assign", role: RoleAdmin, action: ActionAssignComplaint, allow: true},
		{name: "admin create poll", role: RoleAdmin, action: ActionCreatePoll, allow: true},
		{name: "admin manage users", role: RoleAdmin, action: ActionManageUsers, allow: true},
		{name: "unknown role", role: Role("guest"), action: ActionVote, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.allow)
			}
		})
	}
}

func TestAdmit(t *testing.T) {
	if !Admit(RoleVolunteer, RoleVolunteer, RoleOfficial) {
		t.Fatal("volunteer should be admitted into {volunteer, official}")
	}
	if Admit(RoleAdmin, RoleVolunteer, RoleOfficial) {
		t.Fatal("admin should not be admitted into {volunteer, official}")
	}
	if Admit(RoleCitizen) {
		t.Fatal("empty allowed set admits nobody")
	}
}

func TestNormalize(t *testing.T) {
	if Normalize("official") != RoleOfficial {
		t.Fatal("known role should round-trip")
	}
	if Normalize("superuser") != RoleCitizen {
		t.Fatal("unknown role should default to citizen")
	}
}
