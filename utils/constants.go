package utils

import "time"

const (
	GridSize    = 100 //INFO coordinates run 0..GridSize-1 on both axes
	KeyInterval = 10 * time.Second
	GameTimeout = 60 * time.Second

	AskTimeout   = 2 * time.Second
	PollInterval = time.Second
	MaxRooms     = 75
)
