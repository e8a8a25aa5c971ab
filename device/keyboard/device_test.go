package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/kbcore/device"
	"github.com/Alia5/kbcore/device/keyboard"
	"github.com/Alia5/kbcore/usbip"
)

func TestInputReports(t *testing.T) {
	type testCase struct {
		name           string
		inputState     keyboard.InputState
		expectedReport []byte
	}

	cases := []testCase{
		{
			name:           "neutral defaults",
			inputState:     keyboard.InputState{},
			expectedReport: make([]byte, 34),
		},
		{
			name: "single key, no modifier",
			inputState: keyboard.InputState{
				KeyBitmap: func() (b [32]uint8) {
					b[keyboard.KeyA/8] |= 1 << (keyboard.KeyA % 8)
					return
				}(),
			},
			expectedReport: func() []byte {
				b := make([]byte, 34)
				b[2+keyboard.KeyA/8] = 1 << (keyboard.KeyA % 8)
				return b
			}(),
		},
		{
			name: "modifier only",
			inputState: keyboard.InputState{
				Modifiers: keyboard.ModLeftShift | keyboard.ModRightGUI,
			},
			expectedReport: func() []byte {
				b := make([]byte, 34)
				b[0] = keyboard.ModLeftShift | keyboard.ModRightGUI
				return b
			}(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dev, err := keyboard.New(nil)
			require.NoError(t, err)

			dev.UpdateInputState(tc.inputState)
			got := dev.HandleTransfer(1, usbip.DirIn, nil)
			assert.Equal(t, tc.expectedReport, got)
		})
	}
}

func TestHandleTransferUnknownInEndpoint(t *testing.T) {
	dev, err := keyboard.New(nil)
	require.NoError(t, err)
	assert.Nil(t, dev.HandleTransfer(5, usbip.DirIn, nil))
}

func TestLEDFeedback(t *testing.T) {
	dev, err := keyboard.New(nil)
	require.NoError(t, err)

	var got keyboard.LEDState
	dev.SetLEDCallback(func(s keyboard.LEDState) { got = s })

	dev.HandleTransfer(1, usbip.DirOut, []byte{keyboard.LEDCapsLock | keyboard.LEDNumLock})

	assert.Equal(t, keyboard.LEDState{NumLock: true, CapsLock: true}, got)
	assert.Equal(t, keyboard.LEDState{NumLock: true, CapsLock: true}, dev.GetLEDState())
}

func TestNewAppliesCreateOptions(t *testing.T) {
	vendor := uint16(0x1234)
	product := uint16(0x5678)

	dev, err := keyboard.New(&device.CreateOptions{IdVendor: &vendor, IdProduct: &product})
	require.NoError(t, err)

	desc := dev.GetDescriptor()
	assert.Equal(t, vendor, desc.Device.IDVendor)
	assert.Equal(t, product, desc.Device.IDProduct)
}

func TestRegisteredUnderKeyboardName(t *testing.T) {
	reg := device.GetRegistration("keyboard")
	require.NotNil(t, reg)

	dev, err := reg.CreateDevice(nil)
	require.NoError(t, err)
	_, ok := dev.(*keyboard.Keyboard)
	assert.True(t, ok)
}
