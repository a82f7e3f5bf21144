package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/lguibr/asciiring/helpers"
	"github.com/lguibr/keypass/game"
	"github.com/lguibr/keypass/render"
	"github.com/lguibr/keypass/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"
	"golang.org/x/sys/unix"
)

// serverFrame is the union of every message the server pushes.
type serverFrame struct {
	MessageType string         `json:"messageType"`
	RoomID      string         `json:"roomId"`
	Player      game.Player    `json:"player"`
	State       game.GameState `json:"state"`
	Error       string         `json:"error"`
}

type client struct {
	ws       *websocket.Conn
	roomID   string
	viewport int
	gridSize int

	mu      sync.Mutex
	selfID  string
	lastErr string
}

func setRawMode(fileDescriptor uintptr) (*unix.Termios, error) {
	terminalSettings, err := unix.IoctlGetTermios(int(fileDescriptor), unix.TCGETS)
	if err != nil {
		return nil, err
	}
	savedTerminalSettings := *terminalSettings
	terminalSettings.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	terminalSettings.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	terminalSettings.Cflag &^= unix.CSIZE | unix.PARENB
	terminalSettings.Cflag |= unix.CS8

	if err := unix.IoctlSetTermios(int(fileDescriptor), unix.TCSETS, terminalSettings); err != nil {
		return nil, err
	}
	return &savedTerminalSettings, nil
}

func (c *client) send(cmd game.ClientCommand) error {
	return websocket.JSON.Send(c.ws, cmd)
}

// readLoop draws every snapshot the server pushes until the connection ends.
func (c *client) readLoop(done chan<- struct{}) {
	defer close(done)
	for {
		var raw string
		if err := websocket.Message.Receive(c.ws, &raw); err != nil {
			log.Debug().Err(err).Msg("connection closed")
			return
		}
		var frame serverFrame
		if err := json.Unmarshal([]byte(raw), &frame); err != nil {
			log.Warn().Err(err).Msg("bad frame from server")
			continue
		}

		c.mu.Lock()
		switch frame.MessageType {
		case "joined":
			c.selfID = frame.Player.ID
		case "error":
			c.lastErr = frame.Error
		case "gameState":
			helpers.ClearScreen()
			screen := render.Frame(frame.State, c.roomID, c.selfID, c.viewport, c.gridSize, 5)
			screen += "\narrows/wasd move  r ready  q quit\n"
			if c.lastErr != "" {
				screen += "last error: " + c.lastErr + "\n"
			}
			fmt.Print(strings.ReplaceAll(screen, "\n", "\r\n"))
		}
		c.mu.Unlock()
	}
}

// pollLoop asks for a fresh snapshot every interval.
func (c *client) pollLoop(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.send(game.ClientCommand{Action: "state"}); err != nil {
				return
			}
		}
	}
}

// keyCommand maps one keypress to a command. Arrow keys arrive as ESC [ A..D.
func keyCommand(buf []byte) (cmd game.ClientCommand, quit bool, ok bool) {
	if len(buf) >= 3 && buf[0] == 0x1b && buf[1] == '[' {
		arrows := map[byte]string{'A': "ArrowUp", 'B': "ArrowDown", 'C': "ArrowRight", 'D': "ArrowLeft"}
		if name, found := arrows[buf[2]]; found {
			return game.ClientCommand{Action: "move", Direction: name}, false, true
		}
		return cmd, false, false
	}
	if len(buf) == 0 {
		return cmd, false, false
	}
	switch buf[0] {
	case 'q', 'Q', 3: // 3 is ctrl-c in raw mode
		return cmd, true, false
	case 'r', 'R':
		return game.ClientCommand{Action: "ready"}, false, true
	}
	if dir := utils.DirectionFromString(string(buf[:1])); dir != "" {
		return game.ClientCommand{Action: "move", Direction: dir}, false, true
	}
	return cmd, false, false
}

func main() {
	addr := flag.String("addr", "localhost:3001", "server host:port")
	roomID := flag.String("room", "lobby", "room to join")
	name := flag.String("name", "", "player name")
	viewport := flag.Int("viewport", 21, "cells shown around you")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *name == "" {
		log.Fatal().Msg("-name is required")
	}

	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	url := fmt.Sprintf("ws://%s/rooms/%s/subscribe", *addr, *roomID)
	ws, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		log.Fatal().Err(err).Str("url", url).Msg("error connecting to server")
	}
	defer ws.Close()

	c := &client{ws: ws, roomID: *roomID, viewport: *viewport, gridSize: cfg.GridSize}
	if err := c.send(game.ClientCommand{Action: "join", Name: *name}); err != nil {
		log.Fatal().Err(err).Msg("join failed")
	}

	savedTerminalSettings, err := setRawMode(os.Stdin.Fd())
	if err != nil {
		log.Fatal().Err(err).Msg("error setting raw mode")
	}
	restore := func() { _ = unix.IoctlSetTermios(int(os.Stdin.Fd()), unix.TCSETS, savedTerminalSettings) }
	defer restore()

	interruptSignalChannel := make(chan os.Signal, 1)
	signal.Notify(interruptSignalChannel, os.Interrupt)
	go func() {
		<-interruptSignalChannel
		restore()
		os.Exit(0)
	}()

	done := make(chan struct{})
	go c.readLoop(done)
	go c.pollLoop(cfg.PollInterval, done)

	keys := make(chan []byte)
	go func() {
		for {
			buf := make([]byte, 3)
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			keys <- buf[:n]
		}
	}()

	for {
		select {
		case <-done:
			restore()
			fmt.Print("disconnected\r\n")
			return
		case buf, ok := <-keys:
			if !ok {
				return
			}
			cmd, quit, valid := keyCommand(buf)
			if quit {
				restore()
				fmt.Print("Quitting game\r\n")
				return
			}
			if !valid {
				continue
			}
			if err := c.send(cmd); err != nil {
				restore()
				log.Error().Err(err).Msg("error sending to server")
				return
			}
		}
	}
}
