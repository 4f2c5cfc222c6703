package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"video-processing/domain/event"
	"video-processing/domain/video"
)

// EditorOptions configure an interactive editor session
type EditorOptions struct {
	Display       video.DisplayOptions
	SaveToLibrary bool
}

// EditorSession is the single interactive trim flow. Show is published
// when it opens and Hide when it closes.
type EditorSession struct {
	c      *Coordinator
	id     string
	source string
	key    string
	opts   EditorOptions

	// current is guarded by the coordinator mutex
	current *operation
}

// OpenEditor validates source and opens the editor on it. Only one editor
// may be open at a time.
func (c *Coordinator) OpenEditor(source string, opts EditorOptions) (*EditorSession, error) {
	if err := c.store.Validate(source); err != nil {
		verr := video.AsError(err)
		c.bus.Publish(event.Event{Kind: event.KindError, Payload: event.Error{Message: verr.Message, ErrorCode: verr.Code}})
		return nil, err
	}

	key := sourceKey(source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrShutdown
	}
	if c.editor != nil {
		return nil, video.NewError(video.KindAlreadyOpen, video.CodeAlreadyOpen,
			fmt.Sprintf("an editor is already open on %s", c.editor.source), nil)
	}
	if busy, ok := c.sources[key]; ok {
		return nil, video.NewError(video.KindAlreadyOpen, video.CodeSourceBusy,
			fmt.Sprintf("job %s is already processing %s", busy.job.ID, source), nil)
	}

	s := &EditorSession{
		c:      c,
		id:     uuid.NewString(),
		source: source,
		key:    key,
		opts:   opts,
	}
	c.editor = s
	c.bus.Publish(event.Event{Kind: event.KindShow, SessionID: s.id})
	c.logger.Info("editor opened", "session_id", s.id, "source", source)
	return s, nil
}

// CloseEditor closes the open editor, cancelling any trim it is running
func (c *Coordinator) CloseEditor() error {
	c.mu.Lock()
	s := c.editor
	c.mu.Unlock()

	if s == nil {
		return ErrNoEditorOpen
	}
	return c.closeEditor(s)
}

func (c *Coordinator) closeEditor(s *EditorSession) error {
	c.mu.Lock()
	if c.editor != s {
		c.mu.Unlock()
		return ErrNoEditorOpen
	}
	c.editor = nil
	op := s.current
	c.bus.Publish(event.Event{Kind: event.KindHide, SessionID: s.id})
	c.mu.Unlock()

	if op != nil {
		op.Cancel()
	}
	c.logger.Info("editor closed", "session_id", s.id)
	return nil
}

// ID returns the editor session id carried by Show, Hide and Cancel
func (s *EditorSession) ID() string {
	return s.id
}

// Source returns the file the editor was opened on
func (s *EditorSession) Source() string {
	return s.source
}

// Options returns the options the editor was opened with
func (s *EditorSession) Options() EditorOptions {
	return s.opts
}

// Trim trims the selected range of the editor's source. One trim at a time.
func (s *EditorSession) Trim(ctx context.Context, startMs, endMs int64) (*Handle, error) {
	job := video.NewTrimJob(s.source, video.TrimOptions{
		StartTimeMs:   startMs,
		EndTimeMs:     endMs,
		SaveToLibrary: s.opts.SaveToLibrary,
		Display:       s.opts.Display,
	})
	job.Interactive = true
	return s.c.start(ctx, job, s)
}

// Cancel is the user dismissing the editor: Cancel is published, a running
// trim is cancelled and the editor closes
func (s *EditorSession) Cancel() error {
	s.c.mu.Lock()
	open := s.c.editor == s
	if open {
		s.c.bus.Publish(event.Event{Kind: event.KindCancel, SessionID: s.id})
	}
	s.c.mu.Unlock()

	if !open {
		return ErrNoEditorOpen
	}
	return s.c.closeEditor(s)
}

// Close closes the editor without the Cancel notification
func (s *EditorSession) Close() error {
	return s.c.closeEditor(s)
}
