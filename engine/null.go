package engine

// Null is the engine used after the real one failed to start.
// Every command fails with ErrNotRunning.
type Null struct{}

func (Null) Play(string) (int64, error) { return 0, ErrNotRunning }
func (Null) Stop() error                { return ErrNotRunning }
func (Null) Terminate() error           { return nil }
func (Null) Command(...any) error       { return ErrNotRunning }
func (Null) Get(string) (any, error)    { return nil, ErrNotRunning }
func (Null) Set(string, any) error      { return ErrNotRunning }
func (Null) Observe(...string) error    { return ErrNotRunning }
func (Null) Subscribe(Handler)          {}
