package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	agentsx "github.com/shopchat-ai/shopchat/agent/agents"
	cachex "github.com/shopchat-ai/shopchat/agent/cache"
	memoryx "github.com/shopchat-ai/shopchat/agent/memory"
	orchestratorx "github.com/shopchat-ai/shopchat/agent/orchestrator"
	configx "github.com/shopchat-ai/shopchat/pkg/config"
	_ "github.com/shopchat-ai/shopchat/pkg/logger/autoload"
	oraclex "github.com/shopchat-ai/shopchat/pkg/oracle"
	woocommercex "github.com/shopchat-ai/shopchat/pkg/woocommerce"
)

type AppConfig struct {
	// MemoryBackend selects the conversation store: memory, redis or postgres.
	MemoryBackend      string        `envconfig:"MEMORY_BACKEND" split_words:"true" default:"memory"`
	PromptWindow       int           `envconfig:"PROMPT_WINDOW" split_words:"true" default:"6"`
	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" split_words:"true" default:"30m"`
}

func newConversationStore(ctx context.Context, backend string) (memoryx.Store, error) {
	switch backend {
	case "", "memory":
		return memoryx.NewInMemoryStore(), nil
	case "redis":
		cfg := configx.MustNew[memoryx.RedisConfig]("REDIS")
		return memoryx.NewRedisStore(*cfg)
	case "postgres":
		cfg := configx.MustNew[memoryx.PostgresConfig]("POSTGRES")
		store, err := memoryx.NewPostgresStore(*cfg)
		if err != nil {
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", backend)
	}
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	oracleCfg := configx.MustNew[oraclex.Config]("ORACLE")
	oracleClient := oraclex.MustNew(*oracleCfg)

	wcCfg := configx.MustNew[woocommercex.Config]("WC")
	wcClient := woocommercex.MustNew(*wcCfg)

	registry := agentsx.MustNewRegistry(
		agentsx.NewInfoAgent(wcClient),
		agentsx.NewActionAgent(wcClient),
		agentsx.NewResearchAgent(),
	)

	ctx := context.Background()
	store, err := newConversationStore(ctx, appCfg.MemoryBackend)
	if err != nil {
		panic(err)
	}
	memory := memoryx.NewManager(store)
	memory.StartEvictor(ctx, 5*time.Minute, appCfg.SessionIdleTimeout)

	orch, err := orchestratorx.New(oracleClient, registry, memory, cachex.New(), orchestratorx.Config{
		Window: appCfg.PromptWindow,
	})
	if err != nil {
		panic(err)
	}

	// Minimal line transport; real deployments sit behind a chat adapter.
	fmt.Println("shopchat ready, type a request:")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		result, err := orch.HandleTurn(ctx, "local", text)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(result.Reply)
	}
}
