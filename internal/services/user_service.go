package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"

	usersOverTimeMonths = 12
	maxActivityDays     = 365
)

type UserService struct {
	db          *gorm.DB
	files       FileRemover
	adminEmails map[string]bool
}

// NewUserService takes the comma-separated ADMIN_EMAILS list as adminEmails.
func NewUserService(db *gorm.DB, files FileRemover, adminEmails string) *UserService {
	emails := make(map[string]bool)
	for _, e := range strings.Split(adminEmails, ",") {
		if e = normalizeEmail(e); e != "" {
			emails[e] = true
		}
	}
	return &UserService{db: db, files: files, adminEmails: emails}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// IsAdmin checks the stored flag and the configured admin email list.
func (s *UserService) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsAdmin || s.adminEmails[normalizeEmail(user.Email)], nil
}

// UpdateProfile applies the non-nil fields. A non-empty avatarURL replaces the
// current avatar and the old file is removed once the row is saved.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateProfileRequest, avatarURL string) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Genre != nil {
		updates["genre"] = *req.Genre
	}
	if req.Pays != nil {
		updates["pays"] = strings.TrimSpace(*req.Pays)
	}
	if req.Bio != nil {
		updates["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			var taken int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("email = ? AND id <> ?", email, id).
				Count(&taken).Error; err != nil {
				return nil, err
			}
			if taken > 0 {
				return nil, ErrEmailTaken
			}
			updates["email"] = email
		}
	}
	oldAvatar := user.Avatar
	if avatarURL != "" {
		updates["avatar"] = avatarURL
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrEmailTaken
			}
			return nil, err
		}
	}
	if avatarURL != "" && oldAvatar != "" && oldAvatar != avatarURL {
		s.files.RemoveQuietly(oldAvatar)
	}
	return s.Get(ctx, id)
}

func (s *UserService) List(ctx context.Context, q dto.UserListQuery) ([]models.User, int64, error) {
	var total int64
	users := []models.User{}

	filter := func(db *gorm.DB) *gorm.DB {
		if search := strings.TrimSpace(q.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			db = db.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like, like)
		}
		switch q.Status {
		case UserStatusActive:
			db = db.Where("is_active = ?", true)
		case UserStatusBlocked:
			db = db.Where("is_active = ?", false)
		}
		return db
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := s.db.WithContext(ctx).
		Scopes(filter).
		Order("created_at DESC").
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetActive blocks or unblocks an account. Admins cannot change their own status.
func (s *UserService) SetActive(ctx context.Context, adminID, id uuid.UUID, active bool) (*models.User, error) {
	if adminID == id {
		return nil, ErrForbidden
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	user.IsActive = active
	return user, nil
}

func (s *UserService) Stats(ctx context.Context) (*dto.AdminStats, error) {
	var stats dto.AdminStats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.VoiceNote{}).Count(&stats.TotalVoiceNotes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Report{}).Where("status = ?", models.ReportStatusPending).Count(&stats.PendingReports).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// UsersOverTime counts sign-ups per calendar month for the last twelve months, oldest first.
func (s *UserService) UsersOverTime(ctx context.Context, now time.Time) (*dto.TimeSeries, error) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(usersOverTimeMonths - 1), 0)

	created, err := s.createdSince(ctx, &models.User{}, start)
	if err != nil {
		return nil, err
	}

	series := &dto.TimeSeries{
		Labels: make([]string, usersOverTimeMonths),
		Values: make([]int64, usersOverTimeMonths),
	}
	index := make(map[string]int, usersOverTimeMonths)
	for i := 0; i < usersOverTimeMonths; i++ {
		label := start.AddDate(0, i, 0).Format("2006-01")
		series.Labels[i] = label
		index[label] = i
	}
	for _, t := range created {
		if i, ok := index[t.UTC().Format("2006-01")]; ok {
			series.Values[i]++
		}
	}
	return series, nil
}

// ActivityOverTime counts new users and voice notes per day over the last days days,
// including today. Days without activity are zero.
func (s *UserService) ActivityOverTime(ctx context.Context, now time.Time, days int) (*dto.ActivitySeries, error) {
	if days < 1 {
		days = 30
	}
	if days > maxActivityDays {
		days = maxActivityDays
	}
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	users, err := s.createdSince(ctx, &models.User{}, start)
	if err != nil {
		return nil, err
	}
	notes, err := s.createdSince(ctx, &models.VoiceNote{}, start)
	if err != nil {
		return nil, err
	}

	series := &dto.ActivitySeries{
		Labels:     make([]string, days),
		Users:      make([]int64, days),
		VoiceNotes: make([]int64, days),
	}
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		label := start.AddDate(0, 0, i).Format("2006-01-02")
		series.Labels[i] = label
		index[label] = i
	}
	for _, t := range users {
		if i, ok := index[t.UTC().Format("2006-01-02")]; ok {
			series.Users[i]++
		}
	}
	for _, t := range notes {
		if i, ok := index[t.UTC().Format("2006-01-02")]; ok {
			series.VoiceNotes[i]++
		}
	}
	return series, nil
}

// createdSince plucks creation times so bucketing stays dialect independent.
func (s *UserService) createdSince(ctx context.Context, model interface{}, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.db.WithContext(ctx).Model(model).
		Where("created_at >= ?", since).
		Pluck("created_at", &times).Error
	return times, err
}
