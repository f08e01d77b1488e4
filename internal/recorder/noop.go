package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTransfer(_ *TransferEvent) error   { return nil }
func (n *NoopRecorder) RecordRejection(_ *RejectionEvent) error { return nil }
func (n *NoopRecorder) RecordVote(_ *VoteEvent) error           { return nil }
func (n *NoopRecorder) RecordRound(_ *RoundEvent) error         { return nil }
func (n *NoopRecorder) Close() error                            { return nil }
