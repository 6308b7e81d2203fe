package di

import (
	"agent-chat-relay/backend/internal/agent"
	"agent-chat-relay/backend/internal/api"
	"agent-chat-relay/backend/internal/identity"
	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/logger"
)

// Container holds all the dependencies for the application
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	Tokens      identity.TokenProvider
	AgentClient api.AgentClient
}

// New creates a new dependency injection container. When the agent
// credential group is unconfigured the token provider and client stay
// nil and the chat endpoint answers with service unavailable.
func New(cfg *config.Config, log *logger.Logger) *Container {
	c := &Container{
		Config: cfg,
		Logger: log,
	}

	if cfg.Agent.Configured() {
		tokens := identity.NewCachingProvider(identity.NewClientCredentials(cfg.Agent, log))
		c.Tokens = tokens
		c.AgentClient = agent.NewClient(cfg.Agent, tokens, log)
	} else {
		log.Warn("Agent credential group incomplete; chat endpoint disabled")
	}

	return c
}
