package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/generator"
)

// FlowTTL is how long an unfinished flow is kept. Discord interaction tokens
// expire after the same 15 minutes.
const FlowTTL = 15 * time.Minute

func InstanceIDFromInteraction(i *discordgo.InteractionCreate) string {
	var customID string

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		customID = i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		customID = i.ModalSubmitData().CustomID
	default:
		return ""
	}

	return InstanceIDFromCustomID(customID)
}

func InstanceIDFromCustomID(customID string) string {
	parts := strings.SplitN(customID, ":", 2)
	if len(parts) != 2 {
		return ""
	}

	return parts[1]
}

type FlowContext struct {
	InstanceID string
	State      map[string]any
}

type Node struct {
	ID      string
	Matcher func(*discordgo.InteractionCreate) bool
	Handler func(context.Context, DiscordSession, *discordgo.InteractionCreate, *FlowContext) error
	Next    []*Node
}

type Flow struct {
	ID   string
	Root *Node
}

type session struct {
	flow    *Flow
	node    *Node
	ctx     *FlowContext
	started time.Time
}

type FlowManager struct {
	flowsMu *sync.RWMutex
	flows   map[string]*Flow

	sessionsMu *sync.RWMutex
	sessions   map[string]*session

	idGenerator generator.Generator[string]
	now         func() time.Time
}

func NewFlowManager(idGenerator generator.Generator[string]) *FlowManager {
	if idGenerator == nil {
		idGenerator = &generator.UUIDV4Generator{}
	}
	return &FlowManager{
		flowsMu:     &sync.RWMutex{},
		flows:       make(map[string]*Flow),
		sessionsMu:  &sync.RWMutex{},
		sessions:    make(map[string]*session),
		idGenerator: idGenerator,
		now:         time.Now,
	}
}

func (fm *FlowManager) RegisterFlow(flow *Flow) {
	fm.flowsMu.Lock()
	defer fm.flowsMu.Unlock()

	if _, exists := fm.flows[flow.ID]; exists {
		panic("flow already registered")
	}
	fm.flows[flow.ID] = flow
}

// Router continues the flow an interaction belongs to, or starts the first
// flow whose root matches it.
func (fm *FlowManager) Router(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate) error {
	instanceID := InstanceIDFromInteraction(i)
	if instanceID != "" {
		fm.sessionsMu.RLock()
		session, inFlow := fm.sessions[instanceID]
		fm.sessionsMu.RUnlock()
		if inFlow {
			return fm.advance(ctx, s, i, session)
		}
	}

	return fm.initializeFlow(ctx, s, i)
}

// Pending reports how many flows are waiting for a follow-up interaction.
func (fm *FlowManager) Pending() int {
	fm.sessionsMu.RLock()
	defer fm.sessionsMu.RUnlock()
	return len(fm.sessions)
}

func (fm *FlowManager) finish(instanceID string) {
	fm.sessionsMu.Lock()
	delete(fm.sessions, instanceID)
	fm.sessionsMu.Unlock()
}

func (fm *FlowManager) advance(
	ctx context.Context,
	s DiscordSession,
	i *discordgo.InteractionCreate,
	sess *session,
) error {
	if len(sess.node.Next) == 0 {
		fm.finish(sess.ctx.InstanceID)
		return nil
	}

	var nextNode *Node
	for _, n := range sess.node.Next {
		if n.Matcher(i) {
			nextNode = n
			break
		}
	}
	if nextNode == nil {
		return nil
	}

	sess.node = nextNode
	if len(nextNode.Next) == 0 {
		fm.finish(sess.ctx.InstanceID)
	}
	return nextNode.Handler(ctx, s, i, sess.ctx)
}

func (fm *FlowManager) initializeFlow(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate) error {
	fm.expire()

	var f *Flow
	fm.flowsMu.RLock()
	for _, flow := range fm.flows {
		if flow.Root.Matcher(i) {
			f = flow
			break
		}
	}
	fm.flowsMu.RUnlock()
	if f == nil {
		return nil
	}

	instanceID, err := fm.idGenerator.Next()
	if err != nil {
		return fmt.Errorf("failed to generate instance ID: %w", err)
	}

	flowCtx := &FlowContext{
		InstanceID: instanceID,
		State:      make(map[string]any),
	}

	// Single-step flows never wait for a follow-up.
	if len(f.Root.Next) > 0 {
		fm.sessionsMu.Lock()
		fm.sessions[instanceID] = &session{flow: f, node: f.Root, ctx: flowCtx, started: fm.now()}
		fm.sessionsMu.Unlock()
	}

	return f.Root.Handler(ctx, s, i, flowCtx)
}

// expire drops flows nobody followed up on.
func (fm *FlowManager) expire() {
	cutoff := fm.now().Add(-FlowTTL)

	fm.sessionsMu.Lock()
	defer fm.sessionsMu.Unlock()
	for id, sess := range fm.sessions {
		if sess.started.Before(cutoff) {
			delete(fm.sessions, id)
		}
	}
}
