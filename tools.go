package armerge

import (
	"os"
	"strings"

	"github.com/arl/armerge/internal/arbuilder"
	"github.com/arl/armerge/internal/toolexec"
)

// arBuilder is the ArBuilder abstraction used throughout this package; see
// internal/arbuilder for the two concrete implementations.
type arBuilder = arbuilder.Builder

// envOr reads an environment variable, falling back to def when unset. The
// external-tool side channels (LD, OBJCOPY, RANLIB, ARMERGE_LDFLAGS) are all
// read this way, once per invocation, rather than cached at startup: each
// call site that needs one reads it fresh, but none of them race with each
// other since nothing in this process mutates the environment concurrently.
func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

// ldflagsFromEnv splits ARMERGE_LDFLAGS on whitespace into extra linker
// arguments, or returns nil if unset.
func ldflagsFromEnv() []string {
	v := os.Getenv("ARMERGE_LDFLAGS")
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}

// runTool runs an external collaborator process and translates toolexec's
// generic error types into this package's MergeError-shaped taxonomy.
func runTool(tool string, args []string) error {
	_, err := toolexec.Run("external tool failed", tool, args)
	return translateToolErr(err)
}

// runToolNamed is runTool but with a caller-supplied failure reason, used
// for callers that need a specific action described in the error (e.g.
// "Failed to merge object files").
func runToolNamed(reason, tool string, args []string) (toolexec.Result, error) {
	res, err := toolexec.Run(reason, tool, args)
	return res, translateToolErr(err)
}

func translateToolErr(err error) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *toolexec.LaunchError:
		return &ExternalToolLaunchError{Tool: e.Tool, Err: e.Err}
	case *toolexec.ToolError:
		return &ExternalToolError{
			Reason: e.Reason,
			Tool:   e.Result.Tool,
			Args:   e.Result.Args,
			Stdout: e.Result.Stdout,
			Stderr: e.Result.Stderr,
		}
	default:
		return err
	}
}
