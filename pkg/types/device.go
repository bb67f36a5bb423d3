package types

// OwnerIDNone is the owner used in single-owner deployments where no
// authentication layer supplies a real owner identity.
const OwnerIDNone = "none"

// DeviceType categorizes a controllable device.
type DeviceType string

const (
	DeviceTypeEVCharger  DeviceType = "ev_charger"
	DeviceTypeBattery    DeviceType = "battery"
	DeviceTypeThermostat DeviceType = "thermostat"
	DeviceTypeWasher     DeviceType = "washer"
	DeviceTypeDryer      DeviceType = "dryer"
	DeviceTypeDishwasher DeviceType = "dishwasher"
	DeviceTypePoolPump   DeviceType = "pool_pump"
	DeviceTypeOther      DeviceType = "other"
)

// Device represents a controllable load owned by an account. The engine
// treats it as read-only input; mutations go through the device Registry.
type Device struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   DeviceType `json:"type"`
	PowerW float64    `json:"powerW"`

	// Flexible devices can have their run hours shifted as long as they
	// still get RequiredHours of runtime.
	Flexible      bool `json:"flexible"`
	RequiredHours int  `json:"requiredHours,omitempty"`

	// The currently configured daily run window, if the device has one.
	// nil means the device has no declared schedule.
	CurrentStartHour *int `json:"currentStartHour,omitempty"`
	CurrentEndHour   *int `json:"currentEndHour,omitempty"`

	// ScheduleEnabled reports whether the persisted schedule is active
	// on the device.
	ScheduleEnabled bool `json:"scheduleEnabled,omitempty"`
}

// HourRange is a caller-supplied run window for a single device.
type HourRange struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}
