package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const eventBuffer = 256

// task is one dispatched intent. It is owned by the event loop.
type task struct {
	intent     Intent
	superseded bool
	// epoch is the session epoch at dispatch time.
	epoch uint64
}

type event struct {
	dispatch *task
	settle   *task
	commit   reducer
	err      error
}

// Orchestrator runs intents against the Backend and folds their outcomes
// into the Store. A single goroutine applies every state transition in the
// order events arrive; network round trips run concurrently and report back
// through the same queue.
//
// Each intent goes through requested, then succeeded or failed. A Restartable
// intent supersedes the in-flight one of the same kind, whose result is then
// dropped when it arrives. Independent intents always commit.
type Orchestrator struct {
	backend Backend
	store   *Store
	log     zerolog.Logger

	events chan event
	done   chan struct{}
	ctx    context.Context
	wg     sync.WaitGroup

	// loop owned
	latest   map[Kind]*task
	inflight map[slice]int
	// epoch advances whenever a login, register or logout settles. A
	// session check from an older epoch no longer describes the session.
	epoch uint64
}

func NewOrchestrator(backend Backend, store *Store, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		backend:  backend,
		store:    store,
		log:      log,
		events:   make(chan event, eventBuffer),
		done:     make(chan struct{}),
		ctx:      context.Background(),
		latest:   make(map[Kind]*task),
		inflight: make(map[slice]int),
	}
}

// Start launches the event loop. It stops when ctx is cancelled; intents
// dispatched afterwards are ignored.
func (o *Orchestrator) Start(ctx context.Context) {
	o.ctx = ctx
	go o.run(ctx)
}

// Store returns the state container the orchestrator writes to.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// Dispatch queues intent. It returns immediately.
func (o *Orchestrator) Dispatch(intent Intent) {
	o.wg.Add(1)
	select {
	case o.events <- event{dispatch: &task{intent: intent}}:
	case <-o.done:
		o.wg.Done()
	}
}

// Wait blocks until every dispatched intent, including the re-fetches
// triggered by updates, has settled.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Initialize runs the session check and blocks until the authentication
// state is decided or ctx ends.
func (o *Orchestrator) Initialize(ctx context.Context) (AuthState, error) {
	ready := make(chan AuthState, 1)
	unsubscribe := o.store.Subscribe(func(s State) {
		if s.Auth.IsInitialized && !s.Auth.Loading {
			select {
			case ready <- s.Auth:
			default:
			}
		}
	})
	defer unsubscribe()

	o.Dispatch(VerifySession())

	select {
	case auth := <-ready:
		return auth, nil
	case <-ctx.Done():
		return o.store.State().Auth, ctx.Err()
	}
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-o.events:
			if ev.dispatch != nil {
				o.start(ev.dispatch)
			} else {
				o.settle(ev.settle, ev.commit, ev.err)
			}
		}
	}
}

// start moves t to requested and fires its round trip. The caller has
// already counted t in wg.
func (o *Orchestrator) start(t *task) {
	kind := t.intent.Kind()
	def := kinds[kind]
	t.epoch = o.epoch

	if def.policy == Restartable {
		if prev := o.latest[kind]; prev != nil {
			prev.superseded = true
			o.inflight[def.slice]--
			o.log.Debug().Str("kind", string(kind)).Msg("superseded in-flight intent")
		}
		o.latest[kind] = t
	}
	o.inflight[def.slice]++

	st := requested(o.store.State(), def.slice)
	o.store.set(withLoading(st, def.slice, true))

	go func() {
		commit, err := t.intent.execute(o.ctx, o.backend)
		select {
		case o.events <- event{settle: t, commit: commit, err: err}:
		case <-o.done:
			o.wg.Done()
		}
	}()
}

func (o *Orchestrator) settle(t *task, commit reducer, err error) {
	defer o.wg.Done()

	kind := t.intent.Kind()
	def := kinds[kind]

	if t.superseded {
		o.log.Debug().Str("kind", string(kind)).Msg("discarding superseded result")
		return
	}
	if o.latest[kind] == t {
		delete(o.latest, kind)
	}
	o.inflight[def.slice]--

	if kind == KindVerifySession && t.epoch != o.epoch {
		o.log.Debug().Msg("discarding session check overtaken by a session change")
		o.store.set(withLoading(o.store.State(), def.slice, o.inflight[def.slice] > 0))
		return
	}
	if changesSession(kind, err) {
		o.epoch++
	}

	st := o.store.State()
	if err != nil {
		o.log.Warn().Err(err).Str("kind", string(kind)).Msg("intent failed")
		st = failed(st, kind, err)
	} else {
		st = commit(st)
	}
	o.store.set(withLoading(st, def.slice, o.inflight[def.slice] > 0))

	if err != nil {
		return
	}
	if r, ok := t.intent.(refetcher); ok {
		o.wg.Add(1)
		o.start(&task{intent: r.refetch()})
	}
}

// changesSession reports whether settling kind replaced the session held in
// the cookie jar.
func changesSession(kind Kind, err error) bool {
	switch kind {
	case KindLogin, KindRegister:
		return err == nil
	case KindLogout:
		return true
	}
	return false
}
