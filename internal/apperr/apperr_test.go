package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("video not found"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found match, got %v", err)
	}
	if errors.Is(err, ErrAuthorizationDenied) {
		t.Fatal("unexpected authorization match")
	}
}

func TestErrorIsMatchesStage(t *testing.T) {
	err := Internal(StageComments, "delete comments", errors.New("boom"))

	if !errors.Is(err, &Error{Kind: KindInternal, Stage: StageComments}) {
		t.Fatal("expected stage match")
	}
	if errors.Is(err, &Error{Kind: KindInternal, Stage: StageLikes}) {
		t.Fatal("unexpected stage match")
	}
	if StageOf(err) != StageComments {
		t.Fatalf("unexpected stage %q", StageOf(err))
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("expected internal kind for plain errors")
	}
	if KindOf(Upload(StageVideoAsset, "upload failed", nil)) != KindUpload {
		t.Fatal("expected upload kind")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Upload(StageThumbnailAsset, "delete thumbnail", errors.New("timeout"))
	want := "delete thumbnail [thumbnail_asset]: timeout"
	if err.Error() != want {
		t.Fatalf("unexpected message: got %q want %q", err.Error(), want)
	}
}
