package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/DJELO6elisee/YouVoice-API/internal/testutil"
)

func TestIsAdminUsesFlagAndEmailList(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	flagged := testutil.CreateUser(t, db, "flagged")
	db.Model(flagged).Update("is_admin", true)
	listed := testutil.CreateUser(t, db, "listed")
	plain := testutil.CreateUser(t, db, "plain")

	svc := NewUserService(db, &testutil.FileRecorder{}, " Listed@Example.com , ")

	for _, tt := range []struct {
		user *models.User
		want bool
	}{{flagged, true}, {listed, true}, {plain, false}} {
		got, err := svc.IsAdmin(ctx, tt.user.ID)
		if err != nil {
			t.Fatalf("IsAdmin(%s): %v", tt.user.Username, err)
		}
		if got != tt.want {
			t.Errorf("IsAdmin(%s) = %v, want %v", tt.user.Username, got, tt.want)
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")
	db.Model(alice).Update("avatar", "/uploads/avatars/old.png")

	files := &testutil.FileRecorder{}
	svc := NewUserService(db, files, "")

	name, genre := "  Alice A.  ", models.GenreFemme
	user, err := svc.UpdateProfile(ctx, alice.ID, &dto.UpdateProfileRequest{FullName: &name, Genre: &genre}, "/uploads/avatars/new.png")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.FullName != "Alice A." || user.Genre != genre || user.Avatar != "/uploads/avatars/new.png" {
		t.Errorf("unexpected user: %+v", user)
	}
	if len(files.Removed) != 1 || files.Removed[0] != "/uploads/avatars/old.png" {
		t.Errorf("expected old avatar removal, got %v", files.Removed)
	}

	taken := "BOB@example.com"
	if _, err := svc.UpdateProfile(ctx, alice.ID, &dto.UpdateProfileRequest{Email: &taken}, ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSetActive(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin")
	alice := testutil.CreateUser(t, db, "alice")
	svc := NewUserService(db, &testutil.FileRecorder{}, "")

	if _, err := svc.SetActive(ctx, admin.ID, admin.ID, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden when blocking yourself, got %v", err)
	}
	user, err := svc.SetActive(ctx, admin.ID, alice.ID, false)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if user.IsActive {
		t.Error("expected the user to be blocked")
	}

	blocked, total, err := svc.List(ctx, dto.UserListQuery{PageQuery: dto.PageQuery{Page: 1, Limit: 10}, Status: UserStatusBlocked})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || blocked[0].ID != alice.ID {
		t.Errorf("expected alice as the only blocked user, got %+v", blocked)
	}
}

func TestStatsSeries(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")
	testutil.CreateVoiceNote(t, db, alice, "today", time.Now())

	svc := NewUserService(db, &testutil.FileRecorder{}, "")
	now := time.Now()

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalVoiceNotes != 1 || stats.PendingReports != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	monthly, err := svc.UsersOverTime(ctx, now)
	if err != nil {
		t.Fatalf("UsersOverTime: %v", err)
	}
	if len(monthly.Labels) != 12 || monthly.Labels[11] != now.UTC().Format("2006-01") || monthly.Values[11] != 2 {
		t.Errorf("unexpected monthly series: %+v", monthly)
	}

	daily, err := svc.ActivityOverTime(ctx, now, 7)
	if err != nil {
		t.Fatalf("ActivityOverTime: %v", err)
	}
	if len(daily.Labels) != 7 || daily.Labels[6] != now.UTC().Format("2006-01-02") {
		t.Fatalf("unexpected labels: %v", daily.Labels)
	}
	if daily.Users[6] != 2 || daily.VoiceNotes[6] != 1 || daily.Users[0] != 0 {
		t.Errorf("unexpected daily counts: users=%v notes=%v", daily.Users, daily.VoiceNotes)
	}
}
