package extension

import (
	"context"
	"encoding/json"

	"github.com/adequator/vscode-makefile-tools/internal/debugger"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
)

// NewChannelDebugHost returns a debug host that renders session requests to
// the output channel instead of launching a debugger. It is the default
// host when no editor front end is attached.
func NewChannelDebugHost(ch logging.OutputChannel) debugger.Host {
	return debugger.HostFunc(func(_ context.Context, req debugger.SessionRequest) error {
		data, err := json.MarshalIndent(req, "", "  ")
		if err != nil {
			return err
		}
		ch.Message("Debug session request:")
		ch.Message(string(data))
		return nil
	})
}
