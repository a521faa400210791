package facecheck

import (
	"errors"
	"fmt"
	"testing"
)

var frame250 = Frame{Width: 250, Height: 250}

// centeredBox returns a box of the given width centered at (cx+dx, cy+dy) of frame250.
func centeredBox(width, dx, dy float64) BoundingBox {
	return BoundingBox{
		X:      125 + dx - width/2,
		Y:      125 + dy - width/2,
		Width:  width,
		Height: width,
	}
}

func TestEvaluate_FaceCount(t *testing.T) {
	tests := []struct {
		name       string
		detections []BoundingBox
		wantCount  FaceCountStatus
		wantMsg    string
	}{
		{
			name:       "nil detections",
			detections: nil,
			wantCount:  FaceCountNone,
			wantMsg:    MsgNoFaces,
		},
		{
			name:       "empty detections",
			detections: []BoundingBox{},
			wantCount:  FaceCountNone,
			wantMsg:    MsgNoFaces,
		},
		{
			name:       "two faces",
			detections: []BoundingBox{centeredBox(120, 0, 0), centeredBox(40, 80, 80)},
			wantCount:  FaceCountMultiple,
			wantMsg:    MsgMultipleFaces,
		},
		{
			name: "five faces",
			detections: []BoundingBox{
				centeredBox(20, -90, -90), centeredBox(20, -40, -40), centeredBox(20, 0, 0),
				centeredBox(20, 40, 40), centeredBox(20, 90, 90),
			},
			wantCount: FaceCountMultiple,
			wantMsg:   MsgMultipleFaces,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(tt.detections, frame250)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if v.FaceCount != tt.wantCount {
				t.Errorf("FaceCount = %s, want %s", v.FaceCount, tt.wantCount)
			}
			if v.PrimaryMessage != tt.wantMsg {
				t.Errorf("PrimaryMessage = %q, want %q", v.PrimaryMessage, tt.wantMsg)
			}
			if v.Centered != CenteredNotApplicable {
				t.Errorf("Centered = %s, want not_applicable", v.Centered)
			}
			if v.Size != SizeNotApplicable {
				t.Errorf("Size = %s, want not_applicable", v.Size)
			}
			if v.SizeMessage != "" {
				t.Errorf("SizeMessage = %q, want empty", v.SizeMessage)
			}
			if v.Accepted() {
				t.Error("Accepted() = true, want false")
			}
		})
	}
}

func TestEvaluate_Centering(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   CenteredStatus
	}{
		{"exact center", 0, 0, Centered},
		{"10px right", 10, 0, Centered},
		{"10px up", 0, -10, Centered},
		{"10px both axes", 10, 10, Centered},
		{"11px right", 11, 0, OffCenter},
		{"11px down", 0, 11, OffCenter},
		{"centered on x only", 0, 30, OffCenter},
		{"centered on y only", -30, 0, OffCenter},
		// 9.9px per axis is 14px euclidean, still centered per axis.
		{"diagonal inside per-axis tolerance", 9.9, 9.9, Centered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate([]BoundingBox{centeredBox(120, tt.dx, tt.dy)}, frame250)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if v.FaceCount != FaceCountOne {
				t.Fatalf("FaceCount = %s, want one", v.FaceCount)
			}
			if v.Centered != tt.want {
				t.Errorf("Centered = %s, want %s", v.Centered, tt.want)
			}
			wantMsg := MsgNotCentered
			if tt.want == Centered {
				wantMsg = MsgCentered
			}
			if v.PrimaryMessage != wantMsg {
				t.Errorf("PrimaryMessage = %q, want %q", v.PrimaryMessage, wantMsg)
			}
		})
	}
}

func TestEvaluate_Size(t *testing.T) {
	tests := []struct {
		width   float64
		want    SizeStatus
		wantMsg string
	}{
		{99, SizeTooSmall, MsgSizeOutOfRange},
		{100, SizeAcceptable, MsgSizeAcceptable},
		{120, SizeAcceptable, MsgSizeAcceptable},
		{150, SizeAcceptable, MsgSizeAcceptable},
		{151, SizeTooLarge, MsgSizeOutOfRange},
		{20, SizeTooSmall, MsgSizeOutOfRange},
		{240, SizeTooLarge, MsgSizeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("width %v", tt.width), func(t *testing.T) {
			v, err := Evaluate([]BoundingBox{centeredBox(tt.width, 0, 0)}, frame250)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if v.Size != tt.want {
				t.Errorf("width %v: Size = %s, want %s", tt.width, v.Size, tt.want)
			}
			if v.SizeMessage != tt.wantMsg {
				t.Errorf("width %v: SizeMessage = %q, want %q", tt.width, v.SizeMessage, tt.wantMsg)
			}
		})
	}
}

func TestEvaluate_SizeIgnoresHeight(t *testing.T) {
	box := BoundingBox{X: 65, Y: 30, Width: 120, Height: 190}
	v, err := Evaluate([]BoundingBox{box}, frame250)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if v.Size != SizeAcceptable {
		t.Errorf("Size = %s, want acceptable", v.Size)
	}
}

func TestEvaluate_OutOfRangeSharesMessage(t *testing.T) {
	small, _ := Evaluate([]BoundingBox{centeredBox(99, 0, 0)}, frame250)
	large, _ := Evaluate([]BoundingBox{centeredBox(151, 0, 0)}, frame250)

	if small.SizeMessage != large.SizeMessage {
		t.Errorf("too small %q and too large %q messages differ", small.SizeMessage, large.SizeMessage)
	}
	if small.Size == large.Size {
		t.Errorf("expected distinct statuses, both %s", small.Size)
	}
}

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		box          BoundingBox
		wantCentered CenteredStatus
		wantSize     SizeStatus
		wantAccepted bool
	}{
		{
			name:         "offset face",
			box:          BoundingBox{X: 100, Y: 100, Width: 120, Height: 120},
			wantCentered: OffCenter,
			wantSize:     SizeAcceptable,
		},
		{
			name:         "centered face",
			box:          BoundingBox{X: 65, Y: 65, Width: 120, Height: 120},
			wantCentered: Centered,
			wantSize:     SizeAcceptable,
			wantAccepted: true,
		},
		{
			name:         "off center and too small reported together",
			box:          BoundingBox{X: 0, Y: 0, Width: 50, Height: 50},
			wantCentered: OffCenter,
			wantSize:     SizeTooSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate([]BoundingBox{tt.box}, frame250)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if v.Centered != tt.wantCentered {
				t.Errorf("Centered = %s, want %s", v.Centered, tt.wantCentered)
			}
			if v.Size != tt.wantSize {
				t.Errorf("Size = %s, want %s", v.Size, tt.wantSize)
			}
			if v.Accepted() != tt.wantAccepted {
				t.Errorf("Accepted() = %v, want %v", v.Accepted(), tt.wantAccepted)
			}
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	detections := []BoundingBox{{X: 100, Y: 100, Width: 120, Height: 120}}

	first, err1 := Evaluate(detections, frame250)
	second, err2 := Evaluate(detections, frame250)
	if err1 != nil || err2 != nil {
		t.Fatalf("Evaluate() errors = %v, %v", err1, err2)
	}
	if first != second {
		t.Errorf("Evaluate() not idempotent: %+v != %+v", first, second)
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		detections []BoundingBox
		frame      Frame
	}{
		{"zero frame width", nil, Frame{Width: 0, Height: 250}},
		{"negative frame height", nil, Frame{Width: 250, Height: -1}},
		{"zero box width", []BoundingBox{{X: 10, Y: 10, Width: 0, Height: 20}}, frame250},
		{"negative box height", []BoundingBox{{X: 10, Y: 10, Width: 20, Height: -5}}, frame250},
		{"bad box among many", []BoundingBox{centeredBox(120, 0, 0), {Width: 10}}, frame250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.detections, tt.frame)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Evaluate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestPolicy_CustomThresholds(t *testing.T) {
	p := Policy{Tolerance: 2, MinFaceSize: 50, MaxFaceSize: 60}

	v, err := p.Evaluate([]BoundingBox{centeredBox(55, 3, 0)}, frame250)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if v.Centered != OffCenter {
		t.Errorf("Centered = %s, want off_center", v.Centered)
	}
	if v.Size != SizeAcceptable {
		t.Errorf("Size = %s, want acceptable", v.Size)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"default", DefaultPolicy(), false},
		{"zero tolerance", Policy{Tolerance: 0, MinFaceSize: 1, MaxFaceSize: 1}, false},
		{"negative tolerance", Policy{Tolerance: -1, MinFaceSize: 100, MaxFaceSize: 150}, true},
		{"inverted range", Policy{Tolerance: 10, MinFaceSize: 150, MaxFaceSize: 100}, true},
		{"zero min", Policy{Tolerance: 10, MinFaceSize: 0, MaxFaceSize: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
