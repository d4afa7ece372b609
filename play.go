/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Seednode/ghostrace/race"
	"github.com/Seednode/ghostrace/terminal"
	"github.com/Seednode/ghostrace/tone"
)

const speakerVolume = 0.5

func newPlayCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Race ghosts in this terminal instead of a browser.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.fps < 1 || cfg.fps > 240 {
				return fmt.Errorf("invalid frame rate (must be between 1-240 inclusive): %d", cfg.fps)
			}
			return playTerminal(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&cfg.mute, "mute", false, "do not play countdown and finish tones (env: GHOSTRACE_MUTE)")
	fs.IntVar(&cfg.players, "players", race.DefaultPlayers, "number of racers, clamped to 2-8 (env: GHOSTRACE_PLAYERS)")

	bindEnv(v, fs)

	return cmd
}

func playTerminal(ctx context.Context, cfg *Config) error {
	var tones race.ToneEmitter

	if !cfg.mute {
		sp := tone.NewSpeaker(speakerVolume)
		if err := sp.Initialize(); err != nil {
			logf(cfg, "AUDIO: Tones disabled: %v", err)
		} else {
			defer sp.Close()
			tones = sp
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	game := terminal.NewGame(screen, race.Options{
		Random: cfg.random(),
		Tones:  tones,
	})
	game.Controller().SetPlayerCount(cfg.players)

	return game.Run(ctx, cfg.fps)
}
