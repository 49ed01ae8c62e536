package ports

import "context"

// PathPicker is the save-path selection boundary. When a document has no
// backing path, the save flow asks the host for one before writing anything;
// the core itself never prompts.
type PathPicker interface {
	// PickSavePath returns the chosen filesystem path, or ok=false when the
	// user cancelled the selection.
	PickSavePath(ctx context.Context) (path string, ok bool, err error)
}

// PathPickerFunc adapts a function to the PathPicker interface.
type PathPickerFunc func(ctx context.Context) (string, bool, error)

// PickSavePath implements PathPicker.
func (f PathPickerFunc) PickSavePath(ctx context.Context) (string, bool, error) {
	return f(ctx)
}

// FixedPath returns a picker that always answers with the given path.
// Useful for headless flows and tests.
func FixedPath(path string) PathPicker {
	return PathPickerFunc(func(context.Context) (string, bool, error) {
		return path, true, nil
	})
}
