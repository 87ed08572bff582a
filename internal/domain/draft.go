package domain

import "time"

// CustomizationSnapshot is the persistable form of an in-progress wizard
// session, saved periodically so an interrupted customization can resume.
type CustomizationSnapshot struct {
	Step               int
	ClothType          GarmentType
	Material           Material
	DetailText         string
	Selections         map[OptionType]string
	ImageURLs          []string
	SelectedImageIndex int
	StoredImageURL     string
	StoredImagePath    string
	Size               string
	SizeTableEdits     map[string]float64
	CustomMeasurements map[string]float64
}

// Draft wraps a snapshot with ownership and bookkeeping fields.
type Draft struct {
	ID        string
	UserID    string
	Snapshot  CustomizationSnapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}
