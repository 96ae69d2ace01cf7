package log

import "context"

var (
	_ ReopenableWriteCloser = (*cancelingReopenableFile)(nil)
	_ Reopener              = (*fakeReopenerError)(nil)
)

// cancelingReopenableFile cancels the reopen loop once it has reopened, so
// tests can wait on reopenOnSignal returning.
type cancelingReopenableFile struct {
	rf     *ReopenableFile
	cancel context.CancelFunc
}

func (c *cancelingReopenableFile) Reopen() error {
	err := c.rf.Reopen()
	c.cancel()
	return err
}

func (c *cancelingReopenableFile) Write(b []byte) (n int, err error) {
	return c.rf.Write(b)
}

func (c *cancelingReopenableFile) Close() error {
	return c.rf.Close()
}

type fakeReopenerError struct {
	err    error
	cancel context.CancelFunc
}

func (f *fakeReopenerError) Reopen() error {
	f.cancel()
	return f.err
}
