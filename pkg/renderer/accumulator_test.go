package renderer

import "testing"

func TestAccumulator_CountsWhileAccumulating(t *testing.T) {
	acc := NewAccumulator(true)

	for want := uint32(0); want < 5; want++ {
		frame, next := acc.NextFrame()
		if frame != want {
			t.Errorf("Expected frame %d, got %d", want, frame)
		}
		if !next {
			t.Error("Expected next frame to be scheduled while accumulating")
		}
	}
	if acc.Frame() != 5 {
		t.Errorf("Expected counter 5, got %d", acc.Frame())
	}
}

func TestAccumulator_ResetRestartsAtZero(t *testing.T) {
	acc := NewAccumulator(true)
	acc.NextFrame()
	acc.NextFrame()

	acc.Reset()
	if acc.Frame() != 0 {
		t.Errorf("Expected counter 0 after reset, got %d", acc.Frame())
	}
	if frame, _ := acc.NextFrame(); frame != 0 {
		t.Errorf("Expected first frame after reset to be 0, got %d", frame)
	}
}

func TestAccumulator_IdleForcesZero(t *testing.T) {
	acc := NewAccumulator(true)
	for i := 0; i < 10; i++ {
		acc.NextFrame()
	}

	if render := acc.SetProgressive(false); render {
		t.Error("Turning progressive off should not request a render")
	}
	if acc.State() != Idle {
		t.Errorf("Expected idle, got %v", acc.State())
	}
	for i := 0; i < 3; i++ {
		frame, next := acc.NextFrame()
		if frame != 0 || next {
			t.Errorf("Idle render %d: expected (0,false), got (%d,%v)", i, frame, next)
		}
	}

	if render := acc.SetProgressive(true); !render {
		t.Error("Turning progressive on should request a render")
	}
	if frame, _ := acc.NextFrame(); frame != 0 {
		t.Errorf("Expected accumulation to restart at 0, got %d", frame)
	}
}

func TestState_String(t *testing.T) {
	if Idle.String() != "idle" || Accumulating.String() != "accumulating" {
		t.Errorf("Unexpected state names %q %q", Idle, Accumulating)
	}
}

func TestAccumulator_PeekWaitsForAdvance(t *testing.T) {
	acc := NewAccumulator(true)

	for i := 0; i < 3; i++ {
		if frame, next := acc.Peek(); frame != 0 || !next {
			t.Fatalf("Peek %d: expected (0,true), got (%d,%v)", i, frame, next)
		}
	}
	acc.Advance()
	if frame, _ := acc.Peek(); frame != 1 {
		t.Errorf("Expected frame 1 after one advance, got %d", frame)
	}

	acc.SetProgressive(false)
	acc.Advance()
	if acc.Frame() != 0 {
		t.Errorf("Expected idle advance to keep the counter at 0, got %d", acc.Frame())
	}
}
