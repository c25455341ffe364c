package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

type storedFriendship struct {
	id          int64
	requesterID int64
	addresseeID int64
	status      string
	createdAt   time.Time
	updatedAt   time.Time
}

func (f *storedFriendship) values() []any {
	return []any{f.id, f.requesterID, f.addresseeID, f.status, f.createdAt, f.updatedAt}
}

func (f *storedFriendship) other(userID int64) int64 {
	if f.requesterID == userID {
		return f.addresseeID
	}
	return f.requesterID
}

type storedCheckIn struct {
	id           int64
	userID       int64
	parkID       int64
	dogs         []int64
	checkedInAt  time.Time
	checkedOutAt *time.Time
}

func (c *storedCheckIn) values() []any {
	var out any
	if c.checkedOutAt != nil {
		out = *c.checkedOutAt
	}
	return []any{c.id, c.userID, c.parkID, c.dogs, c.checkedInAt, out}
}

// memStore keeps friendships and check-ins in memory and answers the
// statements the services issue, enforcing the same unique indexes as the
// migrations: one pending/accepted row per unordered pair and one active
// check-in per (user, park).
type memStore struct {
	mu          sync.Mutex
	clock       time.Time
	users       map[int64]string
	friendships []*storedFriendship
	checkIns    []*storedCheckIn
	nextID      int64
}

func newMemStore(users map[int64]string) *memStore {
	return &memStore{
		clock: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		users: users,
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) db() *fakeDB {
	return &fakeDB{
		QueryRowFunc: s.queryRow,
		QueryFunc:    s.query,
		ExecFunc:     s.exec,
	}
}

func samePair(f *storedFriendship, a, b int64) bool {
	return min(f.requesterID, f.addresseeID) == min(a, b) && max(f.requesterID, f.addresseeID) == max(a, b)
}

func (s *memStore) activeFriendship(a, b int64) *storedFriendship {
	for _, f := range s.friendships {
		if samePair(f, a, b) && f.status != "declined" {
			return f
		}
	}
	return nil
}

func (s *memStore) activeCheckIn(userID, parkID int64) *storedCheckIn {
	for _, c := range s.checkIns {
		if c.userID == userID && c.parkID == parkID && c.checkedOutAt == nil {
			return c
		}
	}
	return nil
}

func (s *memStore) queryRow(ctx context.Context, sql string, args ...any) Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt := strings.TrimSpace(sql)
	switch {
	case strings.HasPrefix(stmt, "INSERT INTO friendships"):
		requesterID, addresseeID := args[0].(int64), args[1].(int64)
		if s.activeFriendship(requesterID, addresseeID) != nil {
			return errRow(pgx.ErrNoRows)
		}
		now := s.tick()
		f := &storedFriendship{id: s.id(), requesterID: requesterID, addresseeID: addresseeID, status: "pending", createdAt: now, updatedAt: now}
		s.friendships = append(s.friendships, f)
		return rowFromValues(f.values()...)

	case strings.HasPrefix(stmt, "UPDATE friendships"):
		id, callerID, status := args[0].(int64), args[1].(int64), args[2].(string)
		for _, f := range s.friendships {
			if f.id == id && f.addresseeID == callerID && f.status == "pending" {
				f.status = status
				f.updatedAt = s.tick()
				return rowFromValues(f.values()...)
			}
		}
		return errRow(pgx.ErrNoRows)

	case strings.HasPrefix(stmt, "INSERT INTO checkins"):
		userID, parkID, dogs := args[0].(int64), args[1].(int64), args[2].([]int64)
		if s.activeCheckIn(userID, parkID) != nil {
			return errRow(pgx.ErrNoRows)
		}
		c := &storedCheckIn{id: s.id(), userID: userID, parkID: parkID, dogs: dogs, checkedInAt: s.tick()}
		s.checkIns = append(s.checkIns, c)
		return rowFromValues(c.values()...)

	case strings.HasPrefix(stmt, "UPDATE checkins"):
		match := func(c *storedCheckIn) bool {
			if strings.Contains(stmt, "WHERE id = $1") {
				return c.id == args[0].(int64) && c.userID == args[1].(int64)
			}
			return c.userID == args[0].(int64) && c.parkID == args[1].(int64)
		}
		for _, c := range s.checkIns {
			if c.checkedOutAt == nil && match(c) {
				out := s.tick()
				c.checkedOutAt = &out
				return rowFromValues(c.values()...)
			}
		}
		return errRow(pgx.ErrNoRows)

	case strings.Contains(stmt, "FROM checkins") && strings.Contains(stmt, "WHERE user_id = $1 AND dog_park_id = $2"):
		if c := s.activeCheckIn(args[0].(int64), args[1].(int64)); c != nil {
			return rowFromValues(c.values()...)
		}
		return errRow(pgx.ErrNoRows)
	}
	return errRow(fmt.Errorf("memStore: unsupported query row %q", stmt))
}

func (s *memStore) query(ctx context.Context, sql string, args ...any) (Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out [][]any
	switch {
	case strings.Contains(sql, "JOIN friendships f"):
		userID, parkID := args[0].(int64), args[1].(int64)
		for _, c := range s.checkIns {
			if c.parkID != parkID || c.checkedOutAt != nil || c.userID == userID {
				continue
			}
			f := s.activeFriendship(userID, c.userID)
			if f == nil || f.status != "accepted" {
				continue
			}
			out = append(out, append(c.values(), c.userID, s.users[c.userID], "", nil))
		}
		slices.Reverse(out)

	case strings.Contains(sql, "FROM friendships f") && strings.Contains(sql, "f.status = 'accepted'"):
		userID := args[0].(int64)
		for _, f := range s.friendships {
			if f.status != "accepted" || (f.requesterID != userID && f.addresseeID != userID) {
				continue
			}
			other := f.other(userID)
			out = append(out, []any{f.id, other, s.users[other], "", nil, f.createdAt, f.updatedAt})
		}
		slices.Reverse(out)

	case strings.Contains(sql, "JOIN dog_parks p") && strings.Contains(sql, "c.checked_out_at IS NULL"):
		userID := args[0].(int64)
		for _, c := range s.checkIns {
			if c.userID == userID && c.checkedOutAt == nil {
				out = append(out, append(c.values(), fmt.Sprintf("Park %d", c.parkID), ""))
			}
		}
		slices.Reverse(out)

	default:
		return nil, fmt.Errorf("memStore: unsupported query %q", strings.TrimSpace(sql))
	}
	return &fakeRows{rows: out}, nil
}

func (s *memStore) exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.HasPrefix(strings.TrimSpace(sql), "DELETE FROM friendships") {
		return nil, fmt.Errorf("memStore: unsupported exec %q", strings.TrimSpace(sql))
	}

	var keep func(f *storedFriendship) bool
	if strings.Contains(sql, "requester_id = $2") {
		keep = func(f *storedFriendship) bool {
			return !(f.id == args[0].(int64) && f.requesterID == args[1].(int64) && f.status == "pending")
		}
	} else {
		keep = func(f *storedFriendship) bool {
			return !(samePair(f, args[0].(int64), args[1].(int64)) && f.status == "accepted")
		}
	}

	before := len(s.friendships)
	s.friendships = slices.DeleteFunc(s.friendships, func(f *storedFriendship) bool { return !keep(f) })
	return fakeCommandTag{rowsAffected: int64(before - len(s.friendships))}, nil
}
