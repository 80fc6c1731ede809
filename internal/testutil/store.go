// Package testutil provides an in-memory stand-in for the Postgres store so
// services can be tested without a database. Each repository view shares the
// same Store, which mirrors the constraints the schema enforces.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"anoa.com/campusfeedback/internal/entity"
	categoryRepo "anoa.com/campusfeedback/internal/modules/category/repository"
	feedbackRepo "anoa.com/campusfeedback/internal/modules/feedback/repository"
	moderationRepo "anoa.com/campusfeedback/internal/modules/moderation/repository"
	socialRepo "anoa.com/campusfeedback/internal/modules/social/repository"
	userRepo "anoa.com/campusfeedback/internal/modules/user/repository"
	"anoa.com/campusfeedback/pkg/clock"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	mu    sync.Mutex
	clock clock.Clock

	users         []entity.User
	feedback      []entity.Feedback
	likes         []entity.Like
	comments      []entity.Comment
	flags         []entity.Flag
	notifications []entity.Notification
	categories    []entity.RatingCategory
	revoked       map[string]time.Time

	// FailNotificationsFor makes notification inserts for these users fail.
	FailNotificationsFor map[uuid.UUID]bool
}

func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{
		clock:                clk,
		revoked:              make(map[string]time.Time),
		FailNotificationsFor: make(map[uuid.UUID]bool),
	}
}

func (s *Store) Users() *UserRepo                 { return &UserRepo{s} }
func (s *Store) Feedback() *FeedbackRepo          { return &FeedbackRepo{s} }
func (s *Store) Likes() *LikeRepo                 { return &LikeRepo{s} }
func (s *Store) Comments() *CommentRepo           { return &CommentRepo{s} }
func (s *Store) Flags() *FlagRepo                 { return &FlagRepo{s} }
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s} }
func (s *Store) Categories() *CategoryRepo        { return &CategoryRepo{s} }
func (s *Store) Revocations() *RevocationRepo     { return &RevocationRepo{s} }

// stamp returns a creation time strictly after every earlier one so that
// ordering by time matches insertion order even under a frozen clock.
func (s *Store) stamp(seq int) time.Time {
	return s.clock.Now().Add(time.Duration(seq) * time.Microsecond)
}

func (s *Store) userIndex(id uuid.UUID) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) feedbackIndex(id uuid.UUID) int {
	for i := range s.feedback {
		if s.feedback[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) flagIndex(id uuid.UUID) int {
	for i := range s.flags {
		if s.flags[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) userCopy(id uuid.UUID) *entity.User {
	i := s.userIndex(id)
	if i < 0 {
		return nil
	}
	u := s.users[i]
	return &u
}

func (s *Store) feedbackCopy(i int) *entity.Feedback {
	f := s.feedback[i]
	f.Ratings = append([]entity.Rating(nil), f.Ratings...)
	f.Author = s.userCopy(f.AuthorID)
	return &f
}

func (s *Store) flagCopy(i int) *entity.Flag {
	f := s.flags[i]
	if fi := s.feedbackIndex(f.FeedbackID); fi >= 0 {
		f.Feedback = s.feedbackCopy(fi)
	}
	f.FlaggedBy = s.userCopy(f.FlaggedByID)
	if f.ReviewedByID != nil {
		f.ReviewedBy = s.userCopy(*f.ReviewedByID)
	}
	return &f
}

// Seeding and inspection helpers.

// AddUser inserts u as-is, bypassing uniqueness checks.
func (s *Store) AddUser(u entity.User) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.stamp(len(s.users))
	}
	if u.OAuthProvider == "" {
		u.OAuthProvider = entity.OAuthProviderLocal
	}
	s.users = append(s.users, u)
	return &u
}

func (s *Store) AddFeedback(f entity.Feedback) *entity.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.stamp(len(s.feedback))
	}
	f.Author = nil
	s.feedback = append(s.feedback, f)
	return &f
}

func (s *Store) User(id uuid.UUID) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.userCopy(id); u != nil {
		return *u
	}
	return entity.User{}
}

func (s *Store) Post(id uuid.UUID) entity.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.feedbackIndex(id); i >= 0 {
		return s.feedback[i]
	}
	return entity.Feedback{}
}

func (s *Store) Flag(id uuid.UUID) entity.Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.flagIndex(id); i >= 0 {
		return s.flags[i]
	}
	return entity.Flag{}
}

func (s *Store) AllFlags() []entity.Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Flag(nil), s.flags...)
}

func (s *Store) NotificationsFor(userID uuid.UUID) []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) NotificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

// UserRepo implements the user repository.
type UserRepo struct{ s *Store }

var _ userRepo.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return userRepo.ErrEmailTaken
		}
		if user.AnonymousHandle != nil && u.AnonymousHandle != nil && *u.AnonymousHandle == *user.AnonymousHandle {
			return userRepo.ErrAnonymousHandleTaken
		}
		if user.OAuthID != nil && u.OAuthID != nil && *u.OAuthID == *user.OAuthID {
			return userRepo.ErrOAuthIDTaken
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.OAuthProvider == "" {
		user.OAuthProvider = entity.OAuthProviderLocal
	}
	user.CreatedAt = s.stamp(len(s.users))
	user.UpdatedAt = user.CreatedAt
	s.users = append(s.users, *user)
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u := r.s.userCopy(id); u != nil {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *UserRepo) FindByOAuthID(ctx context.Context, provider, oauthID string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.OAuthProvider == provider && u.OAuthID != nil && *u.OAuthID == oauthID {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *UserRepo) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	name := displayName
	s.users[i].DisplayName = &name
	s.users[i].UpdatedAt = s.clock.Now()
	return nil
}

func (r *UserRepo) LinkOAuth(ctx context.Context, id uuid.UUID, provider, oauthID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	for _, u := range s.users {
		if u.ID != id && u.OAuthID != nil && *u.OAuthID == oauthID {
			return userRepo.ErrOAuthIDTaken
		}
	}
	linked := oauthID
	s.users[i].OAuthProvider = provider
	s.users[i].OAuthID = &linked
	s.users[i].UpdatedAt = s.clock.Now()
	return nil
}

func (r *UserRepo) DecideApproval(ctx context.Context, id uuid.UUID, status entity.ApprovalStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 || s.users[i].ApprovalStatus != entity.ApprovalPending {
		return userRepo.ErrApprovalNotPending
	}
	s.users[i].ApprovalStatus = status
	s.users[i].UpdatedAt = s.clock.Now()
	return nil
}

func (r *UserRepo) List(ctx context.Context, filter userRepo.Filter) ([]entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []entity.User
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.ApprovalStatus != nil && u.ApprovalStatus != *filter.ApprovalStatus {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *UserRepo) CountByRole(ctx context.Context) (map[entity.Role]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[entity.Role]int64, len(entity.Roles))
	for _, role := range entity.Roles {
		counts[role] = 0
	}
	for _, u := range r.s.users {
		counts[u.Role]++
	}
	return counts, nil
}

func (r *UserRepo) CountPendingFaculty(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, u := range r.s.users {
		if u.Role == entity.RoleFaculty && u.ApprovalStatus == entity.ApprovalPending {
			n++
		}
	}
	return n, nil
}

// FeedbackRepo implements the feedback repository.
type FeedbackRepo struct{ s *Store }

var _ feedbackRepo.FeedbackRepository = (*FeedbackRepo)(nil)

func (r *FeedbackRepo) Create(ctx context.Context, feedback *entity.Feedback) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	feedback.CreatedAt = s.stamp(len(s.feedback))
	feedback.UpdatedAt = feedback.CreatedAt
	for i := range feedback.Ratings {
		feedback.Ratings[i].FeedbackID = feedback.ID
	}

	stored := *feedback
	stored.Author = nil
	stored.Ratings = append([]entity.Rating(nil), feedback.Ratings...)
	s.feedback = append(s.feedback, stored)
	return nil
}

func (r *FeedbackRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Feedback, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i := r.s.feedbackIndex(id); i >= 0 {
		return r.s.feedbackCopy(i), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *FeedbackRepo) List(ctx context.Context, filter feedbackRepo.FeedFilter) ([]entity.Feedback, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []entity.Feedback
	for i, f := range s.feedback {
		if !filter.IncludeHidden && f.IsHidden {
			continue
		}
		if filter.Category != nil && f.Category != *filter.Category {
			continue
		}
		matched = append(matched, *s.feedbackCopy(i))
	}

	newer := func(a, b int) bool { return matched[a].CreatedAt.After(matched[b].CreatedAt) }
	sort.SliceStable(matched, func(a, b int) bool {
		switch filter.Sort {
		case feedbackRepo.SortMostLiked:
			if matched[a].LikeCount != matched[b].LikeCount {
				return matched[a].LikeCount > matched[b].LikeCount
			}
		case feedbackRepo.SortHighestRated:
			if matched[a].AverageRating != matched[b].AverageRating {
				return matched[a].AverageRating > matched[b].AverageRating
			}
		}
		return newer(a, b)
	})

	total := int64(len(matched))
	if filter.Skip >= len(matched) {
		return []entity.Feedback{}, total, nil
	}
	matched = matched[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *FeedbackRepo) UpdateContent(ctx context.Context, feedback *entity.Feedback, ratings []entity.Rating) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.feedbackIndex(feedback.ID)
	if i < 0 {
		return nil
	}
	if ratings != nil {
		for j := range ratings {
			ratings[j].FeedbackID = feedback.ID
		}
		s.feedback[i].Ratings = append([]entity.Rating(nil), ratings...)
		feedback.Ratings = ratings
	}
	s.feedback[i].Content = feedback.Content
	s.feedback[i].AverageRating = feedback.AverageRating
	s.feedback[i].UpdatedAt = s.clock.Now()
	return nil
}

func (r *FeedbackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.feedbackIndex(id)
	if i < 0 {
		return nil
	}
	s.feedback = append(s.feedback[:i], s.feedback[i+1:]...)

	s.likes = filterOut(s.likes, func(l entity.Like) bool { return l.FeedbackID == id })
	s.comments = filterOut(s.comments, func(c entity.Comment) bool { return c.FeedbackID == id })
	s.flags = filterOut(s.flags, func(f entity.Flag) bool { return f.FeedbackID == id })
	return nil
}

func (r *FeedbackRepo) CountByVisibility(ctx context.Context) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var visible, hidden int64
	for _, f := range r.s.feedback {
		if f.IsHidden {
			hidden++
		} else {
			visible++
		}
	}
	return visible, hidden, nil
}

func filterOut[T any](items []T, drop func(T) bool) []T {
	kept := items[:0]
	for _, item := range items {
		if !drop(item) {
			kept = append(kept, item)
		}
	}
	return kept
}

// LikeRepo implements the like repository.
type LikeRepo struct{ s *Store }

var _ socialRepo.LikeRepository = (*LikeRepo)(nil)

func (r *LikeRepo) Create(ctx context.Context, like *entity.Like) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.likes {
		if l.FeedbackID == like.FeedbackID && l.UserID == like.UserID {
			return socialRepo.ErrAlreadyLiked
		}
	}
	if like.ID == uuid.Nil {
		like.ID = uuid.New()
	}
	like.CreatedAt = s.clock.Now()
	s.likes = append(s.likes, *like)

	if i := s.feedbackIndex(like.FeedbackID); i >= 0 {
		s.feedback[i].LikeCount++
	}
	return nil
}

func (r *LikeRepo) Delete(ctx context.Context, feedbackID, userID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.likes)
	s.likes = filterOut(s.likes, func(l entity.Like) bool { return l.FeedbackID == feedbackID && l.UserID == userID })
	if len(s.likes) == before {
		return socialRepo.ErrNotLiked
	}
	if i := s.feedbackIndex(feedbackID); i >= 0 && s.feedback[i].LikeCount > 0 {
		s.feedback[i].LikeCount--
	}
	return nil
}

func (r *LikeRepo) LikedFeedbackIDs(ctx context.Context, userID uuid.UUID, feedbackIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(feedbackIDs))
	for _, id := range feedbackIDs {
		wanted[id] = true
	}
	liked := make(map[uuid.UUID]bool)
	for _, l := range r.s.likes {
		if l.UserID == userID && wanted[l.FeedbackID] {
			liked[l.FeedbackID] = true
		}
	}
	return liked, nil
}

// CommentRepo implements the comment repository.
type CommentRepo struct{ s *Store }

var _ socialRepo.CommentRepository = (*CommentRepo)(nil)

func (r *CommentRepo) Create(ctx context.Context, comment *entity.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	comment.CreatedAt = s.stamp(len(s.comments))
	stored := *comment
	stored.Author = nil
	s.comments = append(s.comments, stored)

	if i := s.feedbackIndex(comment.FeedbackID); i >= 0 {
		s.feedback[i].CommentCount++
	}
	return nil
}

func (r *CommentRepo) ListByFeedback(ctx context.Context, feedbackID uuid.UUID) ([]entity.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []entity.Comment
	for _, c := range r.s.comments {
		if c.FeedbackID == feedbackID {
			out = append(out, c)
		}
	}
	return out, nil
}

// FlagRepo implements the flag repository.
type FlagRepo struct{ s *Store }

var _ moderationRepo.FlagRepository = (*FlagRepo)(nil)

func (r *FlagRepo) CreateAndHide(ctx context.Context, flag *entity.Flag) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	fi := s.feedbackIndex(flag.FeedbackID)
	if fi < 0 || s.feedback[fi].IsFlagged {
		return moderationRepo.ErrAlreadyFlagged
	}
	for _, f := range s.flags {
		if f.FeedbackID == flag.FeedbackID && f.Status == entity.FlagPending {
			return moderationRepo.ErrAlreadyFlagged
		}
	}

	if flag.ID == uuid.Nil {
		flag.ID = uuid.New()
	}
	flag.CreatedAt = s.stamp(len(s.flags))
	flag.UpdatedAt = flag.CreatedAt

	stored := *flag
	stored.Feedback, stored.FlaggedBy, stored.ReviewedBy = nil, nil, nil
	s.flags = append(s.flags, stored)

	s.feedback[fi].MarkFlagged(flag.FlaggedByID, flag.Reason)
	return nil
}

func (r *FlagRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Flag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i := r.s.flagIndex(id); i >= 0 {
		return r.s.flagCopy(i), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *FlagRepo) ListPending(ctx context.Context) ([]entity.Flag, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.Flag
	for i, f := range s.flags {
		if f.Status == entity.FlagPending {
			out = append(out, *s.flagCopy(i))
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *FlagRepo) Resolve(ctx context.Context, res moderationRepo.Resolution) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.flagIndex(res.Flag.ID)
	if i < 0 || s.flags[i].Status != entity.FlagPending {
		return moderationRepo.ErrFlagNotPending
	}

	stored := &s.flags[i]
	stored.Status = res.Flag.Status
	stored.AdminAction = res.Flag.AdminAction
	stored.AdminNotes = res.Flag.AdminNotes
	stored.ReviewedByID = res.Flag.ReviewedByID
	stored.ReviewedAt = res.Flag.ReviewedAt
	stored.UpdatedAt = s.clock.Now()

	if res.Restore {
		if fi := s.feedbackIndex(stored.FeedbackID); fi >= 0 {
			s.feedback[fi].Restore()
		}
	}
	if res.Author != nil {
		if ui := s.userIndex(res.Author.ID); ui >= 0 {
			s.users[ui].IsSuspended = res.Author.IsSuspended
			s.users[ui].SuspensionEndDate = res.Author.SuspensionEndDate
			s.users[ui].IsBanned = res.Author.IsBanned
		}
	}
	return nil
}

func (r *FlagRepo) CountPending(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, f := range r.s.flags {
		if f.Status == entity.FlagPending {
			n++
		}
	}
	return n, nil
}

// ErrNotificationRejected is returned for recipients in FailNotificationsFor.
var ErrNotificationRejected = errors.New("notification insert failed")

// NotificationRepo implements the notification repository.
type NotificationRepo struct{ s *Store }

func (r *NotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailNotificationsFor[notification.UserID] {
		return ErrNotificationRejected
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	notification.CreatedAt = s.stamp(len(s.notifications))
	s.notifications = append(s.notifications, *notification)
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var mine []entity.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	sort.SliceStable(mine, func(a, b int) bool { return mine[a].CreatedAt.After(mine[b].CreatedAt) })

	total := int64(len(mine))
	if offset >= len(mine) {
		return []entity.Notification{}, total, nil
	}
	mine = mine[offset:]
	if limit > 0 && limit < len(mine) {
		mine = mine[:limit]
	}
	return mine, total, nil
}

// CategoryRepo implements the rating category repository.
type CategoryRepo struct{ s *Store }

var _ categoryRepo.CategoryRepository = (*CategoryRepo)(nil)

func (r *CategoryRepo) Create(ctx context.Context, category *entity.RatingCategory) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return categoryRepo.ErrNameTaken
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = s.clock.Now()
	s.categories = append(s.categories, *category)
	return nil
}

func (r *CategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.RatingCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *CategoryRepo) FindByName(ctx context.Context, name string) (*entity.RatingCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *CategoryRepo) FindActive(ctx context.Context) ([]entity.RatingCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []entity.RatingCategory
	for _, c := range r.s.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (r *CategoryRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.categories {
		if r.s.categories[i].ID == id {
			r.s.categories[i].IsActive = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// RevocationRepo implements the token revocation store.
type RevocationRepo struct{ s *Store }

func (r *RevocationRepo) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.revoked[tokenID] = until
	return nil
}

func (r *RevocationRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	until, ok := r.s.revoked[tokenID]
	return ok && r.s.clock.Now().Before(until), nil
}
