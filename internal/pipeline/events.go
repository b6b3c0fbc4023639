package pipeline

import (
	"context"
	"encoding/json"
)

// HandleSessionRecorded is the NATS handler for wisdom.session.recorded.
// The payload is a SessionInput; the result is logged and published, never
// returned, so a bad event cannot take the subscriber down.
func (p *Processor) HandleSessionRecorded(subject string, data []byte) {
	ctx := context.Background()

	var in SessionInput
	if err := json.Unmarshal(data, &in); err != nil {
		p.logger.Error("failed to parse session event", "subject", subject, "error", err)
		return
	}

	p.logger.Info("processing recorded session", "locator", in.SourceLocator)
	res := p.ProcessSession(ctx, in)
	if !res.Success {
		p.logger.Warn("recorded session failed", "stage", string(res.Stage), "errors", res.Errors)
	}
}
