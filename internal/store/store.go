package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/scrimlabs/inhouse-backend/internal/session"
)

// ActionRecord is one accepted mutation, in sequence order per room. Together
// the rows are the audit trail of an allocation session.
type ActionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RoomCode  string `gorm:"index;not null"`
	Seq       uint64 `gorm:"not null"`
	EventType string `gorm:"not null"`
	TeamID    string
	PlayerID  string
	Amount    int
	Auto      bool
	CreatedAt time.Time
}

// SessionArchive is the final partition handed to the bracket stage, kept as
// the session's JSON result.
type SessionArchive struct {
	ID          uint   `gorm:"primaryKey"`
	RoomCode    string `gorm:"uniqueIndex;not null"`
	Result      string `gorm:"type:jsonb;not null"`
	CompletedAt time.Time
}

// Store implements session.Archiver on postgres. Writes go through a buffered
// queue so the session loop never blocks on the database.
type Store struct {
	db    *gorm.DB
	queue chan func()
	done  chan struct{}
	once  sync.Once
	log   *zap.Logger
}

func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&ActionRecord{}, &SessionArchive{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &Store{db: db, queue: make(chan func(), 256), done: make(chan struct{}), log: log}
	go s.writer()
	return s, nil
}

func (s *Store) writer() {
	for {
		select {
		case fn := <-s.queue:
			fn()
		case <-s.done:
			// Drain whatever was queued before the close, then stop.
			for {
				select {
				case fn := <-s.queue:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Close stops accepting writes and lets the writer drain what is already
// queued. Session shutdown is asynchronous, so a session may still be
// archiving when this runs; those late writes are dropped, never a panic.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) RecordAction(roomCode string, d session.Delta) {
	rec := ActionRecord{
		RoomCode:  roomCode,
		Seq:       d.Seq,
		EventType: string(d.Event.Type),
		TeamID:    string(d.Event.Team),
		PlayerID:  string(d.Event.Player),
		Amount:    d.Event.Amount,
		Auto:      d.Event.Auto,
	}
	s.enqueue(func() {
		if err := s.db.Create(&rec).Error; err != nil {
			s.log.Warn("audit write failed", zap.String("room", roomCode), zap.Uint64("seq", d.Seq), zap.Error(err))
		}
	})
}

func (s *Store) ArchiveResult(roomCode string, res session.Result) {
	payload, err := json.Marshal(res)
	if err != nil {
		s.log.Warn("result marshal failed", zap.String("room", roomCode), zap.Error(err))
		return
	}
	rec := SessionArchive{RoomCode: roomCode, Result: string(payload), CompletedAt: time.Now()}
	s.enqueue(func() {
		if err := s.db.Create(&rec).Error; err != nil {
			s.log.Warn("archive write failed", zap.String("room", roomCode), zap.Error(err))
		}
	})
}

func (s *Store) enqueue(fn func()) {
	select {
	case <-s.done:
		s.log.Warn("store closed, dropping write")
		return
	default:
	}
	select {
	case s.queue <- fn:
	default:
		s.log.Warn("archive queue full, dropping write")
	}
}
