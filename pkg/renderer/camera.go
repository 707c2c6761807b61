package renderer

import (
	"github.com/chewxy/math32"
	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// zoomRate scales wheel deltas into camera constant changes
const zoomRate = 2.5e-4

// minCameraConstant keeps the image plane distance positive under extreme zoom
const minCameraConstant = 1e-3

// Camera is a pinhole camera with an optional thin lens.
// The image plane sits CameraConstant units in front of the eye.
type Camera struct {
	Eye            core.Vec3 `json:"eye"`
	At             core.Vec3 `json:"at"`
	Up             core.Vec3 `json:"up"`
	CameraConstant float32   `json:"cameraConstant"`
	FocusDistance  float32   `json:"focusDistance"` // distance to the plane in focus
	LensRadius     float32   `json:"lensRadius"`    // 0 disables depth of field
}

// DefaultCamera returns a camera looking into the Cornell box
func DefaultCamera() Camera {
	return Camera{
		Eye:            core.NewVec3(277, 275, -570),
		At:             core.NewVec3(277, 275, 0),
		Up:             core.NewVec3(0, 1, 0),
		CameraConstant: 1,
		FocusDistance:  926,
		LensRadius:     0,
	}
}

// Basis returns the orthonormal camera frame: viewing direction, right and up
func (c Camera) Basis() (forward, right, up core.Vec3) {
	forward = c.At.Subtract(c.Eye).Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward)
	return forward, right, up
}

// Zoom scales the camera constant by a wheel delta; positive deltas zoom in
func (c *Camera) Zoom(deltaY float32) {
	c.CameraConstant = math32.Max(c.CameraConstant*(1+zoomRate*deltaY), minCameraConstant)
}

// AspectRatio returns width over height, or 1 for an empty surface
func AspectRatio(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// Ray returns the pinhole ray through a point on the image plane.
// ndcX and ndcY are in [-1, 1] with y up; the shader builds its primary rays the same way.
func (c Camera) Ray(ndcX, ndcY, aspect float32) (origin, direction core.Vec3) {
	forward, right, up := c.Basis()
	direction = right.Multiply(ndcX * aspect).
		Add(up.Multiply(ndcY)).
		Add(forward.Multiply(c.CameraConstant)).
		Normalize()
	return c.Eye, direction
}

// PixelNDC maps the center of pixel (x, y), row 0 at the top, to image plane coordinates
func PixelNDC(x, y, width, height int) (float32, float32) {
	ndcX := (float32(x)+0.5)/float32(width)*2 - 1
	ndcY := (float32(height-1-y)+0.5)/float32(height)*2 - 1
	return ndcX, ndcY
}
