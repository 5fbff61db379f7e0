package reconcile

import "context"

// Submission tracks one optimistic identification until the server answers.
type Submission struct {
	uuid   string
	stored string
	done   chan struct{}
	err    error
}

func finished(uuid string, err error) *Submission {
	s := &Submission{uuid: uuid, done: make(chan struct{})}
	s.finish(err)
	return s
}

func (s *Submission) finish(err error) {
	s.err = err
	close(s.done)
}

// UUID is the client-generated key of the submitted identification.
func (s *Submission) UUID() string {
	return s.uuid
}

// StoredUUID is the key the server stored the identification under once
// it settled successfully. It differs from UUID when the server assigned
// its own; it is empty before Done and after a failure.
func (s *Submission) StoredUUID() string {
	select {
	case <-s.done:
		if s.err != nil {
			return ""
		}
		return s.stored
	default:
		return ""
	}
}

// Done is closed once the submission has settled.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Err returns the outcome; nil until Done is closed and on success.
func (s *Submission) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Wait blocks until the submission settles or ctx ends.
func (s *Submission) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
