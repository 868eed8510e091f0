package scenario

import "fmt"

// Click decodes the action's payload as ClickData.
func (a *Action) Click() (ClickData, error) { return decodePayload[ClickData](a, ActionClick) }

// TypeAction decodes the action's payload as TypeData. Named TypeAction to
// avoid colliding with the ActionKind constant ActionType.
func (a *Action) TypeAction() (TypeData, error) { return decodePayload[TypeData](a, ActionType) }

// Select decodes the action's payload as SelectData.
func (a *Action) Select() (SelectData, error) { return decodePayload[SelectData](a, ActionSelect) }

// Scroll decodes the action's payload as ScrollData.
func (a *Action) Scroll() (ScrollData, error) { return decodePayload[ScrollData](a, ActionScroll) }

// Keypress decodes the action's payload as KeypressData.
func (a *Action) Keypress() (KeypressData, error) {
	return decodePayload[KeypressData](a, ActionKeypress)
}

// Wait decodes the action's payload as WaitData.
func (a *Action) Wait() (WaitData, error) { return decodePayload[WaitData](a, ActionWait) }

// Upload decodes the action's payload as UploadData.
func (a *Action) Upload() (UploadData, error) { return decodePayload[UploadData](a, ActionUpload) }

// Drag decodes the action's payload as DragData.
func (a *Action) Drag() (DragData, error) { return decodePayload[DragData](a, ActionDrag) }

// Navigate decodes the action's payload as NavigateData.
func (a *Action) Navigate() (NavigateData, error) {
	return decodePayload[NavigateData](a, ActionNavigate)
}

// Extract decodes the action's payload as ExtractData.
func (a *Action) Extract() (ExtractData, error) { return decodePayload[ExtractData](a, ActionExtract) }

func decodePayload[T any](a *Action, want ActionKind) (T, error) {
	var zero T
	if a.Kind != want {
		return zero, fmt.Errorf("action_kind_mismatch: expected %s, got %s", want, a.Kind)
	}
	var out T
	if len(a.Data) == 0 {
		return out, nil
	}
	if err := unmarshalStrict(a.Data, &out); err != nil {
		return zero, fmt.Errorf("action_data_decode_failed: %w", err)
	}
	return out, nil
}
