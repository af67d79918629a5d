package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/shopchat-ai/shopchat/agent/nodes"
)

func (o *Orchestrator) compileHandleTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now, o.newID)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_conversation",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadConversation(ctx, in, o.memory, o.window)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_conversation: %w", err)
	}

	if err := graph.AddLambdaNode("build_prompt",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BuildPrompt(in, o.systemPrompt)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_prompt: %w", err)
	}

	if err := graph.AddLambdaNode("invoke_oracle",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokeOracle(ctx, in, o.oracle)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node invoke_oracle: %w", err)
	}

	if err := graph.AddLambdaNode("parse_command",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ParseCommand(in, o.parser)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node parse_command: %w", err)
	}

	if err := graph.AddLambdaNode("check_cache",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CheckCache(in, o.registry, o.cache)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node check_cache: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_agent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchAgent(ctx, in, o.registry)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_agent: %w", err)
	}

	if err := graph.AddLambdaNode("store_cache",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.StoreCache(in, o.cache)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node store_cache: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	if err := graph.AddLambdaNode("record_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.RecordTurn(ctx, in, o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_turn: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_conversation"},
		{"load_conversation", "build_prompt"},
		{"build_prompt", "invoke_oracle"},
		{"invoke_oracle", "parse_command"},
		{"parse_command", "check_cache"},
		{"check_cache", "dispatch_agent"},
		{"dispatch_agent", "store_cache"},
		{"store_cache", "finalize_reply"},
		{"finalize_reply", "record_turn"},
		{"record_turn", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
