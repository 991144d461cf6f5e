package entity

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusHeld      SlotStatus = "held"
	SlotStatusBooked    SlotStatus = "booked"
)
