// Package main provides a terminal quiz client for testing the server.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/blindbox/internal/app/game"
)

var (
	app    = kingpin.New("blindbox-quizcli", "blindbox terminal quiz client for testing")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()

	// playlists command
	playlistsCmd = app.Command("playlists", "List playlists")

	// play command
	playCmd      = app.Command("play", "Play a full quiz round")
	playPlaylist = playCmd.Arg("playlist-id", "Playlist ID").Required().String()

	// state command
	stateCmd = app.Command("state", "Show current game state")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case playlistsCmd.FullCommand():
		listPlaylists()
	case playCmd.FullCommand():
		play(*playPlaylist)
	case stateCmd.FullCommand():
		showState()
	}
}

type playlistsResponse struct {
	Items []struct {
		ID         string `json:"ID"`
		Name       string `json:"Name"`
		TrackCount int    `json:"TrackCount"`
		OwnerName  string `json:"OwnerName"`
	} `json:"items"`
}

type answerResponse struct {
	Correct bool          `json:"correct"`
	State   game.Snapshot `json:"state"`
}

func listPlaylists() {
	var resp playlistsResponse
	if err := getJSON("/api/playlists", &resp); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	for _, p := range resp.Items {
		fmt.Printf("%s  %s (%d tracks, by %s)\n", p.ID, p.Name, p.TrackCount, p.OwnerName)
	}
}

func showState() {
	var snap game.Snapshot
	if err := getJSON("/api/game/state", &snap); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printState(snap)
}

func play(playlistID string) {
	var snap game.Snapshot
	err := postJSON("/api/game/select", map[string]string{"playlistId": playlistID}, &snap)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	for snap.PhaseName == "playing" || snap.PhaseName == "answered" {
		if snap.PhaseName == "playing" {
			printQuestion(snap)
			fmt.Print("Your answer (1-4, or q to quit): ")
			line, _ := reader.ReadString('\n')
			line = strings.TrimSpace(line)
			if line == "q" {
				_ = postJSON("/api/game/restart", nil, &snap)
				fmt.Println("Bye!")
				return
			}
			choice, err := strconv.Atoi(line)
			if err != nil || choice < 1 || choice > 4 {
				fmt.Println("Please enter a number between 1 and 4.")
				continue
			}

			var ans answerResponse
			err = postJSON("/api/game/answer", map[string]int{"optionIndex": choice - 1}, &ans)
			if err != nil {
				// The question may have timed out while we were typing.
				fmt.Printf("Answer not accepted: %v\n", err)
				if err := getJSON("/api/game/state", &snap); err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				continue
			}
			if ans.Correct {
				fmt.Println("✅ Correct!")
			} else {
				fmt.Println("❌ Wrong!")
			}
			snap = ans.State
			if q := snap.Question; q != nil && q.TrackName != "" {
				fmt.Printf("   It was: %s by %s\n", q.TrackName, q.ArtistLine)
			}
		}

		if err := postJSON("/api/game/next", nil, &snap); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	if snap.PhaseName == "finished" {
		fmt.Printf("\nGame over! Final score: %d/%d\n", snap.Score, snap.TotalQuestions)
	}
}

func printQuestion(snap game.Snapshot) {
	q := snap.Question
	if q == nil {
		return
	}
	fmt.Printf("\nQuestion %d/%d (score %d)\n", q.Number, snap.TotalQuestions, snap.Score)
	if q.PreviewURL != "" {
		fmt.Printf("Listen: %s\n", q.PreviewURL)
	}
	for i, opt := range q.Options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}
}

func printState(snap game.Snapshot) {
	fmt.Printf("Phase: %s\n", snap.PhaseName)
	if snap.Mode != "" {
		fmt.Printf("Mode: %s\n", snap.Mode)
	}
	if snap.TotalQuestions > 0 {
		fmt.Printf("Score: %d/%d (question %d)\n", snap.Score, snap.TotalQuestions, snap.CurrentIndex+1)
	}
	if snap.Error != "" {
		fmt.Printf("Error: %s\n", snap.Error)
	}
}

func getJSON(path string, out any) error {
	resp, err := http.Get(*server + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func postJSON(path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	resp, err := http.Post(*server+path, "application/json", &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
