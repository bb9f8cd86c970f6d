package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/digiplay/digiplay-server/internal/jalali"
	"github.com/digiplay/digiplay-server/internal/models"
)

// NewChild holds the fields a parent fills in when adding a child
type NewChild struct {
	FirstName  string
	LastName   string
	NationalID string
	Password   string
	BirthDate  string
	Avatar     string
}

// ChildUpdate holds editable child fields. Empty fields are left unchanged.
type ChildUpdate struct {
	FirstName string
	LastName  string
	BirthDate string
	Avatar    string
}

// ValidBirthDate reports whether s is an existing Jalali date in YYYY/MM/DD form
func ValidBirthDate(s string) bool {
	d, ok := jalali.ParseStrict(s)
	return ok && d.Valid()
}

// ListChildren returns the owner's children. Children with no presence data
// get a simulated one, which is persisted.
func (s *Store) ListChildren(ctx context.Context, ownerID string) ([]models.Child, error) {
	unlock := s.lock(ownerID)
	defer unlock()

	return s.listChildren(ctx, ownerID)
}

func (s *Store) listChildren(ctx context.Context, ownerID string) ([]models.Child, error) {
	children, err := loadOrEmpty[[]models.Child](ctx, s, ownerID, KeyChildren)
	if err != nil {
		return nil, err
	}
	if children == nil {
		return []models.Child{}, nil
	}

	changed := false
	for i := range children {
		if children[i].OnlineSince == nil && children[i].LastOnlineTime == nil {
			s.seed.BackfillPresence(&children[i], i)
			changed = true
		}
	}
	if changed {
		if err := s.save(ctx, ownerID, KeyChildren, children); err != nil {
			return nil, err
		}
	}

	return children, nil
}

// GetChild returns one child or ErrNotFound
func (s *Store) GetChild(ctx context.Context, ownerID, childID string) (*models.Child, error) {
	children, err := s.ListChildren(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range children {
		if children[i].ID == childID {
			return &children[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "child %s", childID)
}

// AddChild appends a child with a timestamp id and a hashed password
func (s *Store) AddChild(ctx context.Context, ownerID string, in NewChild) (*models.Child, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, errors.Wrap(ErrValidation, "first and last name are required")
	}
	if !ValidBirthDate(in.BirthDate) {
		return nil, errors.Wrapf(ErrValidation, "invalid birth date %q", in.BirthDate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash child password")
	}

	unlock := s.lock(ownerID)
	defer unlock()

	children, err := s.listChildren(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Ids are creation timestamps; bump past any taken in the same millisecond.
	id := s.nowMillis()
	for taken(children, strconv.FormatInt(id, 10)) {
		id++
	}

	child := models.Child{
		ID:         strconv.FormatInt(id, 10),
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		NationalID: in.NationalID,
		Password:   string(hash),
		BirthDate:  in.BirthDate,
		Avatar:     in.Avatar,
	}
	s.seed.Presence(&child)

	children = append(children, child)
	if err := s.save(ctx, ownerID, KeyChildren, children); err != nil {
		return nil, err
	}

	s.logger.Info("child added", "owner", ownerID, "child", child.ID)
	return &child, nil
}

func taken(children []models.Child, id string) bool {
	for _, c := range children {
		if c.ID == id {
			return true
		}
	}
	return false
}

// UpdateChild changes the non-empty fields of upd
func (s *Store) UpdateChild(ctx context.Context, ownerID, childID string, upd ChildUpdate) (*models.Child, error) {
	if upd.BirthDate != "" && !ValidBirthDate(upd.BirthDate) {
		return nil, errors.Wrapf(ErrValidation, "invalid birth date %q", upd.BirthDate)
	}

	unlock := s.lock(ownerID)
	defer unlock()

	children, err := s.listChildren(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for i := range children {
		if children[i].ID != childID {
			continue
		}
		c := &children[i]
		if upd.FirstName != "" {
			c.FirstName = upd.FirstName
		}
		if upd.LastName != "" {
			c.LastName = upd.LastName
		}
		if upd.BirthDate != "" {
			c.BirthDate = upd.BirthDate
		}
		if upd.Avatar != "" {
			c.Avatar = upd.Avatar
		}
		if err := s.save(ctx, ownerID, KeyChildren, children); err != nil {
			return nil, err
		}
		updated := *c
		return &updated, nil
	}

	return nil, errors.Wrapf(ErrNotFound, "child %s", childID)
}

// DeleteChild removes the child and every document derived from its id
func (s *Store) DeleteChild(ctx context.Context, ownerID, childID string) error {
	unlock := s.lock(ownerID)
	defer unlock()

	children, err := s.listChildren(ctx, ownerID)
	if err != nil {
		return err
	}

	kept := make([]models.Child, 0, len(children))
	for _, c := range children {
		if c.ID != childID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(children) {
		return errors.Wrapf(ErrNotFound, "child %s", childID)
	}

	if err := s.save(ctx, ownerID, KeyChildren, kept); err != nil {
		return err
	}
	if err := s.repo.DeleteDocuments(ctx, ownerID, ChildKeys(childID)); err != nil {
		return err
	}

	s.logger.Info("child deleted", "owner", ownerID, "child", childID)
	return nil
}

// PresenceText describes in Persian how long the child has been online, or
// how long ago it was last online.
func PresenceText(child models.Child, now time.Time) string {
	if child.IsOnline && child.OnlineSince != nil {
		return durationText(now.UnixMilli()-*child.OnlineSince, "همین الان آنلاین شد", "آنلاین است")
	}
	if child.LastOnlineTime != nil {
		return durationText(now.UnixMilli()-*child.LastOnlineTime, "همین الان آنلاین بود", "پیش آنلاین بود")
	}
	return "اطلاعاتی موجود نیست"
}

func durationText(elapsedMillis int64, justNow, suffix string) string {
	total := elapsedMillis / 60000
	if total < 1 {
		return justNow
	}
	hours, minutes := total/60, total%60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%d ساعت و %d دقیقه %s", hours, minutes, suffix)
	case hours > 0:
		return fmt.Sprintf("%d ساعت %s", hours, suffix)
	default:
		return fmt.Sprintf("%d دقیقه %s", minutes, suffix)
	}
}
