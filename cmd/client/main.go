package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"fullmetal-planet/internal/client"
	"fullmetal-planet/internal/protocol"
)

func main() {
	profile := flag.String("profile", "", "Profile name for separate config (e.g., player1, player2)")
	serverAddr := flag.String("server", "", "Server address (defaults to the last one used)")
	name := flag.String("name", "", "Player name")
	create := flag.Bool("create", false, "Create a new game")
	join := flag.String("join", "", "Join the game with this id")
	spectate := flag.String("spectate", "", "Watch the game with this id")
	mapID := flag.String("map", "", "Official map id for -create")
	seed := flag.Int64("seed", 0, "Map seed for -create")
	msgpack := flag.Bool("msgpack", false, "Use binary msgpack frames")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	client.SetProfile(*profile)

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	cfg, err := client.LoadConfig()
	if err != nil {
		logger.Warn("failed to load config", zap.Error(err))
	}
	if *serverAddr != "" {
		cfg.LastServer = *serverAddr
	}
	if *name != "" {
		cfg.PlayerName = *name
	}
	if *msgpack {
		cfg.Encoding = protocol.EncodingMsgpack
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := seat(ctx, cfg, *create, *join, *spectate, *mapID, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if cfg.PlayerToken == "" {
		fmt.Fprintln(os.Stderr, "no seat: use -create, -join or -spectate")
		os.Exit(2)
	}
	if err := cfg.Save(); err != nil {
		logger.Warn("failed to save config", zap.Error(err))
	}

	session := client.NewSession(client.SessionConfig{
		URL:      client.WebSocketURL(cfg.LastServer),
		Token:    cfg.PlayerToken,
		Encoding: cfg.Encoding,
	}, logger)
	game := client.NewGame(cfg, session, logger)
	game.OnEvent = printEvent

	fmt.Printf("game %s as %s\n", cfg.GameID, cfg.PlayerID)

	go readCommands(game, cancel)

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "session ended: %v\n", err)
		os.Exit(1)
	}
}

// seat takes a seat through the bootstrap API. Without a flag the saved
// token is reused.
func seat(ctx context.Context, cfg *client.Config, create bool, join, spectate, mapID string, seed int64) error {
	api := client.NewAPI(cfg.LastServer)
	switch {
	case create:
		if cfg.PlayerName == "" {
			return errors.New("-name is required")
		}
		resp, err := api.CreateGame(ctx, cfg.PlayerName, mapID, seed)
		if err != nil {
			return err
		}
		cfg.Remember(resp.GameID, resp.PlayerID, resp.PlayerToken, false)
	case join != "":
		if cfg.PlayerName == "" {
			return errors.New("-name is required")
		}
		resp, err := api.JoinGame(ctx, join, cfg.PlayerName)
		if err != nil {
			return err
		}
		cfg.Remember(resp.GameID, resp.PlayerID, resp.PlayerToken, false)
	case spectate != "":
		resp, err := api.Spectate(ctx, spectate, cfg.PlayerName)
		if err != nil {
			return err
		}
		cfg.Remember(resp.GameID, resp.SpectatorID, resp.SpectatorToken, true)
	}
	return nil
}

func printEvent(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeError:
		var p protocol.ErrorPayload
		msg.ParsePayload(&p)
		fmt.Printf("< ERROR %s: %s\n", p.Code, p.Message)
	case protocol.TypeGameStart, protocol.TypeStateUpdate:
		var p protocol.GameStatePayload
		msg.ParsePayload(&p)
		if p.GameState != nil {
			fmt.Printf("< %s turn %d %s, tide %s, current %s\n",
				msg.Type, p.GameState.Turn, p.GameState.Phase, p.GameState.CurrentTide, p.GameState.CurrentPlayer)
			return
		}
		fmt.Printf("< %s\n", msg.Type)
	case protocol.TypeGameEnd:
		var p protocol.GameEndPayload
		msg.ParsePayload(&p)
		fmt.Printf("< GAME_END scores %v winners %v\n", p.Scores, p.Winners)
	default:
		fmt.Printf("< %s %s\n", msg.Type, msg.Payload)
	}
}

const help = `commands:
  ready | unready
  action <json>        e.g. action {"type":"MOVE","unitId":"u3","path":[{"q":1,"r":0}]}
  end [savedAP]
  liftoff leave|stay
  sync
  state
  quit`

func readCommands(game *client.Game, quit func()) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(help)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		var err error
		switch cmd {
		case "ready":
			err = game.SetReady(true)
		case "unready":
			err = game.SetReady(false)
		case "action":
			action, derr := protocol.DecodeAction([]byte(rest))
			if derr != nil {
				err = derr
				break
			}
			_, err = game.Act(action)
		case "end":
			saved := 0
			if rest != "" {
				saved, err = strconv.Atoi(rest)
				if err != nil {
					break
				}
			}
			err = game.EndTurn(saved)
		case "liftoff":
			err = game.DecideLiftOff(rest == "leave")
		case "sync":
			err = game.Sync()
		case "state":
			gs, digest := game.State()
			if gs == nil {
				fmt.Println("no game yet")
				continue
			}
			fmt.Printf("turn %d %s, tide %s, current %s, digest %s\n",
				gs.Turn, gs.Phase, gs.CurrentTide, gs.CurrentPlayer, digest)
		case "quit":
			quit()
			return
		default:
			fmt.Println(help)
		}
		if err != nil {
			fmt.Printf("! %v\n", err)
		}
	}
}
