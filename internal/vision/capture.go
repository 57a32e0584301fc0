package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	ErrDeviceNotOpened = errors.New("capture device could not be opened")
	ErrNotOpen         = errors.New("pipeline is not open")
)

// Capture is the subset of gocv.VideoCapture the pipeline uses.
type Capture interface {
	Read(m *gocv.Mat) bool
	IsOpened() bool
	Close() error
}

// Opener acquires a capture device by its numeric id.
type Opener func(deviceID int) (Capture, error)

// OpenDevice opens a local camera through OpenCV.
func OpenDevice(deviceID int) (Capture, error) {
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrDeviceNotOpened, deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d is busy or missing", ErrDeviceNotOpened, deviceID)
	}
	return capture, nil
}
