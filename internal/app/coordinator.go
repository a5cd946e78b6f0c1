package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"classroom-levels-service/internal/catalog"
	"classroom-levels-service/internal/domain"
	"classroom-levels-service/internal/level"
	"classroom-levels-service/internal/protocol"
)

const (
	// DefaultTickInterval is how often the driver polls the level and syncs clients.
	DefaultTickInterval = 100 * time.Millisecond

	victoryMessage = "Merry Christmas! All levels cleared!"
	timeoutMessage = "Time is up! Back to lobby."
)

// Broadcaster delivers one message to every connected client.
type Broadcaster interface {
	Broadcast(msg any)
}

// CatalogRepository loads level catalogs (possibly cached).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// Options tune a Coordinator. Zero values select the defaults.
type Options struct {
	CatalogID string
	GridSize  int
	Rand      *rand.Rand
	Now       func() time.Time
}

// Coordinator owns the session: the participant registry, the level sequence
// and the current level. One mutex serializes every mutation coming from
// connections, the tick driver and the operator console.
type Coordinator struct {
	out       Broadcaster
	catalogs  CatalogRepository
	catalogID string
	rnd       *rand.Rand
	now       func() time.Time

	mu         deadlock.Mutex
	registry   *Registry
	started    bool
	levelIndex int
	current    level.Level
	sequence   []domain.LevelConfig
	shapes     map[string][]domain.Point

	statuses chan domain.SessionStatus
}

func NewCoordinator(out Broadcaster, catalogs CatalogRepository, opts Options) *Coordinator {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		out:       out,
		catalogs:  catalogs,
		catalogID: opts.CatalogID,
		rnd:       opts.Rand,
		now:       opts.Now,
		registry:  NewRegistry(opts.GridSize, opts.Rand),
		statuses:  make(chan domain.SessionStatus, 1),
	}
}

// Statuses yields the latest session status after each transition. Stale
// values are dropped when nobody reads.
func (c *Coordinator) Statuses() <-chan domain.SessionStatus {
	return c.statuses
}

// Connect announces the lobby size to a freshly accepted connection.
func (c *Coordinator) Connect(participant string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log.Debug().Str("participant", participant).Msg("connection accepted")
	c.out.Broadcast(protocol.NewLobbySync(c.registry.Count()))
}

func (c *Coordinator) Join(participant, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, known := c.registry.Get(participant)
	p := c.registry.Add(participant, name)
	if known {
		log.Debug().Str("participant", p.ID).Str("name", p.Name).Msg("student renamed")
	} else {
		log.Info().Str("participant", p.ID).Str("name", p.Name).Msg("student joined")
	}
	c.out.Broadcast(protocol.NewLobbySync(c.registry.Count()))
	c.notifyLocked()
}

// Move never advances a level; formation victory is only checked on tick.
func (c *Coordinator) Move(participant string, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registry.Move(participant, x, y); !ok {
		log.Debug().Str("participant", participant).Err(domain.ErrParticipantNotFound).Msg("move ignored")
	}
}

// Vote records a quiz vote and resolves the round synchronously. A round that
// completes the level advances right away.
func (c *Coordinator) Vote(participant string, choice int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registry.Get(participant); !ok {
		log.Debug().Str("participant", participant).Err(domain.ErrParticipantNotFound).Msg("vote ignored")
		return
	}
	quiz, ok := c.current.(*level.Quiz)
	if !ok {
		return
	}

	quiz.Vote(participant, choice)
	c.resolveLocked(quiz)
}

// resolveLocked evaluates the round against the current head count and
// advances when the level is complete.
func (c *Coordinator) resolveLocked(quiz *level.Quiz) {
	outcome := quiz.Evaluate(c.registry.Count())
	if outcome == level.Pending {
		return
	}
	log.Info().
		Str("level", quiz.Config().ID).
		Int("score", quiz.Score()).
		Int("target", quiz.TargetScore()).
		Stringer("outcome", outcome).
		Msg("quiz round resolved")
	if outcome == level.Complete {
		c.levelIndex++
		c.advanceLocked()
	}
}

// Leave removes a participant. It is called once per connection when its read loop ends.
func (c *Coordinator) Leave(participant string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry.Remove(participant) {
		log.Info().Str("participant", participant).Msg("student left")
		if quiz, ok := c.current.(*level.Quiz); ok {
			quiz.Retract(participant)
			// the leaver may have been the last vote missing
			c.resolveLocked(quiz)
		}
		c.notifyLocked()
	}
	c.out.Broadcast(protocol.NewLobbySync(c.registry.Count()))
}

// StartSession loads the catalog and runs the first level.
func (c *Coordinator) StartSession(ctx context.Context) error {
	c.mu.Lock()
	err := c.canStartLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	cat, err := c.catalogs.GetCatalog(ctx, c.catalogID)
	if err != nil {
		return fmt.Errorf("load catalog %q: %w", c.catalogID, err)
	}
	if err := catalog.Validate(cat); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Participants may have left while the catalog was loading.
	if err := c.canStartLocked(); err != nil {
		return err
	}
	c.sequence = cat.LevelSequence
	c.shapes = cat.Shapes
	c.levelIndex = 0
	c.started = true
	log.Info().Str("catalog", c.catalogID).Int("levels", len(c.sequence)).Int("participants", c.registry.Count()).Msg("session started")
	c.advanceLocked()
	return nil
}

func (c *Coordinator) canStartLocked() error {
	if c.started {
		return domain.ErrSessionRunning
	}
	if c.registry.Count() == 0 {
		return domain.ErrNoParticipants
	}
	return nil
}

func (c *Coordinator) advanceLocked() {
	defer c.notifyLocked()

	if c.levelIndex >= len(c.sequence) {
		log.Info().Int("levels", len(c.sequence)).Msg("all levels cleared")
		c.out.Broadcast(protocol.NewVictory(victoryMessage))
		c.started = false
		c.current = nil
		return
	}

	cfg := c.sequence[c.levelIndex]
	lvl, err := level.New(cfg, c.shapes, c.registry.Count(), c.rnd, c.now())
	if err != nil {
		log.Error().Err(err).Str("level", cfg.ID).Msg("cannot build level, stopping session")
		c.started = false
		c.current = nil
		return
	}

	c.current = lvl
	log.Info().Str("level", cfg.ID).Str("type", string(cfg.Type)).Int("index", c.levelIndex).Msg("level started")
	c.out.Broadcast(protocol.NewStartLevel(cfg.Title, cfg.Description))
}

// Tick checks victory, then timeout, then syncs every client. A level times
// out once less than a whole second is left, when clients see time_left 0.
// A level won in that tick still counts as won.
func (c *Coordinator) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.current == nil {
		return
	}

	if c.current.Won(c.registry.Snapshot()) {
		log.Info().Str("level", c.current.Config().ID).Msg("level cleared")
		c.levelIndex++
		c.advanceLocked()
	}

	if c.current != nil && level.Seconds(c.current.TimeLeft(c.now())) <= 0 {
		log.Info().Str("level", c.current.Config().ID).Msg("level timed out")
		c.out.Broadcast(protocol.NewGameOver(timeoutMessage))
		c.started = false
		c.current = nil
		c.notifyLocked()
	}

	if c.current != nil {
		c.out.Broadcast(c.syncLocked())
	}
}

func (c *Coordinator) syncLocked() protocol.Sync {
	msg := protocol.Sync{
		Type:      protocol.TypeSync,
		LevelType: c.current.Type(),
		TimeLeft:  level.Seconds(c.current.TimeLeft(c.now())),
		Players:   protocol.Players(c.registry.Snapshot()),
	}

	switch lvl := c.current.(type) {
	case *level.Formation:
		msg.Targets = lvl.Targets()
		msg.StaticPoints = lvl.Static()
	case *level.Quiz:
		q := lvl.Question()
		score, votes := lvl.Score(), lvl.Votes()
		msg.Question = &protocol.QuestionView{Prompt: q.Prompt, Options: q.Options}
		msg.Score = &score
		msg.Votes = &votes
	}
	return msg
}

// Run drives Tick every interval until ctx is done.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	log.Info().Dur("interval", interval).Msg("tick driver started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("tick driver stopped")
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

func (c *Coordinator) Status() domain.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Participants lists joined participants ordered by name.
func (c *Coordinator) Participants() []domain.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.List()
}

func (c *Coordinator) statusLocked() domain.SessionStatus {
	status := domain.SessionStatus{
		Started:      c.started,
		LevelIndex:   c.levelIndex,
		Participants: c.registry.Count(),
		UpdatedAt:    c.now(),
	}
	if c.current != nil {
		cfg := c.current.Config()
		status.LevelID = cfg.ID
		status.LevelTitle = cfg.Title
		status.LevelType = cfg.Type
	}
	return status
}

func (c *Coordinator) notifyLocked() {
	status := c.statusLocked()
	select {
	case c.statuses <- status:
	default:
		// replace the unread status with the newer one
		select {
		case <-c.statuses:
		default:
		}
		c.statuses <- status
	}
}
