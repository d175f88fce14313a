package cli

import (
	"context"
	"os"
)

// Execute builds the command tree and runs it with ctx. Logging goes to
// stderr at info level, or debug level with --verbose.
//
// Example:
//
//	func main() {
//	    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	    defer stop()
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	return ExecuteArgs(ctx, os.Args[1:])
}

// ExecuteArgs runs the command tree on args instead of os.Args.
func ExecuteArgs(ctx context.Context, args []string) error {
	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
