package e2e

import (
	"app-chat/domain/chat"
	"app-chat/domain/event"
	"app-chat/infrastructure/embedded"
	"app-chat/projection"
	"app-chat/runtime"
	"app-chat/runtime/workers"
	"app-chat/services"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

const (
	collection = "messages"
	bucket     = "attachments"
)

type BaseFeedSuite struct {
	suite.Suite
	Config  Config
	log     *slog.Logger
	db      *badger.DB
	backend *embedded.Backend
	cancel  context.CancelFunc
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseFeedSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)
}

// SetupTest gives every test a fresh store and hub.
func (s *BaseFeedSuite) SetupTest() {
	dir := s.Config.BadgerDir
	if dir == "" {
		dir = s.T().TempDir()
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.db = db

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.backend = embedded.NewBackend(s.log, db, nil, embedded.Config{
		TokenSecret:   "e2e-secret",
		TokenDuration: time.Hour,
		PageSize:      3,
		BufferSize:    16,
		SinkTimeout:   time.Second,
	})
	s.backend.Start(ctx)
}

func (s *BaseFeedSuite) TearDownTest() {
	s.cancel()
	s.backend.Wait()
	s.Require().NoError(s.db.Close())
}

// Step prints a header then runs fn.
func (s *BaseFeedSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	fn()
}

// Participant is one user with its own client, services and feed.
type Participant struct {
	Gate         *services.SessionGate
	Messages     *services.MessageService
	Synchronizer *runtime.Synchronizer
	Feed         *projection.Feed
	Statuses     *statusRecorder
	Session      chat.Session
	supervisor   *workers.Supervisor
}

func (s *BaseFeedSuite) NewParticipant() *Participant {
	client := s.backend.NewClient()
	supervisor := workers.NewSupervisor(s.log, nil, 10*time.Millisecond)
	messages := services.NewMessageService(s.log, client, client, collection, bucket)
	feed := projection.NewFeed(s.log, discardView{}, messages, time.Millisecond)
	statuses := &statusRecorder{}
	return &Participant{
		Gate:     services.NewSessionGate(s.log, client),
		Messages: messages,
		Feed:     feed,
		Statuses: statuses,
		Synchronizer: runtime.NewSynchronizer(s.log, messages,
			services.NewRealtimeService(s.log, client, supervisor, collection), feed, statuses),
		supervisor: supervisor,
	}
}

// Leave stops the feed and waits for its workers.
func (p *Participant) Leave() {
	p.Synchronizer.Stop()
	p.supervisor.Wait()
}

// WaitFeed waits until the feed holds n messages.
func (s *BaseFeedSuite) WaitFeed(p *Participant, n int) {
	s.Require().Eventually(func() bool { return p.Feed.Len() == n },
		s.Config.Wait, 5*time.Millisecond, "feed should hold %d messages", n)
}

type discardView struct{}

func (discardView) Clear()                          {}
func (discardView) Insert(int, projection.FeedItem) {}
func (discardView) ScrollToLatest()                 {}

type statusRecorder struct {
	mu    sync.Mutex
	types []event.Type
}

func (r *statusRecorder) Handle(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.Type)
}

func (r *statusRecorder) Types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Type(nil), r.types...)
}
