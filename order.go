package mediamutex

import (
	"fmt"

	"github.com/lunaris-aosp/mediamutex/holdstack"
)

// Order is the capability-order tag every Mutex is permanently assigned at
// construction. The order set is a dense, fixed, closed enumeration: it
// defines the one legal acquisition order for this process and is never
// reconfigured at runtime.
//
// The category list below is representative of a low-latency audio server's
// lock hierarchy (AudioFlinger-style thread/track/effect/policy layering).
// _examples/original_source/_INDEX.md records that the real
// Lunaris-AOSP/system_media C++ source was filtered out entirely during
// retrieval, so there was nothing to read the real enumeration from; see
// DESIGN.md for how this list was chosen.
type Order = holdstack.Order

// Capability orders, strictly increasing in acquisition order. Other is the
// floor of the hierarchy and the zero value of Order (NewMutex still takes
// the order explicitly), and at most one Other-tagged mutex may be held at a
// time (a second is order-recursion by construction — an intentional nudge
// toward picking a real category for anything held concurrently).
const (
	Other Order = iota
	ClientCallback
	EffectChain
	EffectHandle
	EffectModule
	EffectsFactory
	AudioPolicyEffects
	AudioPolicyService
	AudioFlingerClient
	AudioFlinger
	ThreadBase
	PlaybackThread
	RecordThread
	MmapThread
	Track
	RecordTrack
	DeviceEffectManager
	PatchPanel
	AudioHwDevice
	StreamHalHidl
	DevicesFactoryHal
	PowerManager
	MelReporter
	SpatializerPolicyCallback
	Spatializer
	AudioPolicyManager
	AudioPolicyClient
	AudioSystem
	ServiceManager
	PermissionController
	CameraServiceProxy
	numOrders // sentinel: count of declared orders, not itself a usable order.
)

// orderNames is indexed identically to the Order enum above; every name
// table consumer (statistics dumps, deadlock chain labels) goes through this.
var orderNames = [numOrders]string{
	Other:                     "Other",
	ClientCallback:            "ClientCallback",
	EffectChain:               "EffectChain",
	EffectHandle:              "EffectHandle",
	EffectModule:              "EffectModule",
	EffectsFactory:            "EffectsFactory",
	AudioPolicyEffects:        "AudioPolicyEffects",
	AudioPolicyService:        "AudioPolicyService",
	AudioFlingerClient:        "AudioFlingerClient",
	AudioFlinger:              "AudioFlinger",
	ThreadBase:                "ThreadBase",
	PlaybackThread:            "PlaybackThread",
	RecordThread:              "RecordThread",
	MmapThread:                "MmapThread",
	Track:                     "Track",
	RecordTrack:               "RecordTrack",
	DeviceEffectManager:       "DeviceEffectManager",
	PatchPanel:                "PatchPanel",
	AudioHwDevice:             "AudioHwDevice",
	StreamHalHidl:             "StreamHalHidl",
	DevicesFactoryHal:         "DevicesFactoryHal",
	PowerManager:              "PowerManager",
	MelReporter:               "MelReporter",
	SpatializerPolicyCallback: "SpatializerPolicyCallback",
	Spatializer:               "Spatializer",
	AudioPolicyManager:        "AudioPolicyManager",
	AudioPolicyClient:         "AudioPolicyClient",
	AudioSystem:               "AudioSystem",
	ServiceManager:            "ServiceManager",
	PermissionController:      "PermissionController",
	CameraServiceProxy:        "CameraServiceProxy",
}

// OrderName returns o's display name, or a synthetic "order-N" for any value
// outside the declared enumeration.
func OrderName(o Order) string {
	if int(o) < len(orderNames) {
		return orderNames[o]
	}
	return fmt.Sprintf("order-%d", o)
}

func allOrderNames() []string { return orderNames[:] }
