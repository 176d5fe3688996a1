package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/SentientPlayer/internal/config"
)

const simPlaylist = `<ximpel>
  <playlist>
    <subject id="intro" swipeLeftTo="outro">
      <media><image duration="2" leadsTo="middle"/></media>
    </subject>
    <subject id="middle">
      <media><image duration="1"/></media>
    </subject>
    <subject id="outro">
      <media><image duration="1"/></media>
    </subject>
  </playlist>
  <config><showScore>true</showScore></config>
</ximpel>`

func loadTestShow(t *testing.T, xml string) *show {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/show/playlist.xml", []byte(xml), 0o644))

	cfg := config.Default()
	cfg.Show.Playlist = "/show/playlist.xml"
	s, err := loadShow(fs, cfg)
	require.NoError(t, err)
	return s
}

func subjectsPlayed(t *testing.T, out string) []string {
	t.Helper()
	var subjects []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var e printedEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		if e.Event == "subject.playing" {
			subjects = append(subjects, e.Fields["subject"].(string))
		}
	}
	return subjects
}

func TestParseInputs(t *testing.T) {
	inputs, err := parseInputs([]string{"5s=swipe:left", "1s=click", "2.5s=goto:outro"})
	require.NoError(t, err)
	require.Len(t, inputs, 3)
	assert.Equal(t, scriptedInput{At: time.Second, Action: "click"}, inputs[0])
	assert.Equal(t, scriptedInput{At: 2500 * time.Millisecond, Action: "goto", Arg: "outro"}, inputs[1])
	assert.Equal(t, "left", inputs[2].Arg)

	for _, bad := range []string{"swipe:left", "xs=play", "1s=dance", "1s=goto"} {
		_, err := parseInputs([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestGestureFor(t *testing.T) {
	g, err := gestureFor("left", 50)
	require.NoError(t, err)
	assert.Less(t, g.DX, -50.0)
	assert.True(t, g.Final)

	g, err = gestureFor("swipedown", 50)
	require.NoError(t, err)
	assert.Greater(t, g.DY, 50.0)

	_, err = gestureFor("sideways", 50)
	assert.Error(t, err)
}

func TestLoadShowMergesPresentation(t *testing.T) {
	s := loadTestShow(t, simPlaylist)
	assert.Equal(t, "intro", s.doc.FirstSubject)
	assert.True(t, s.presentation.ShowScore)
	assert.Equal(t, 0.10, s.presentation.MinimumSwipeVelocity)
}

func TestLoadShowRequiresPlaylist(t *testing.T) {
	_, err := loadShow(afero.NewMemMapFs(), config.Default())
	assert.Error(t, err)
}

func TestSimulateFollowsLeadsTo(t *testing.T) {
	s := loadTestShow(t, simPlaylist)
	var out bytes.Buffer

	elapsed, err := simulate(s, nil, time.Minute, 100*time.Millisecond, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"intro", "middle"}, subjectsPlayed(t, out.String()))
	assert.Contains(t, out.String(), `"event":"player.end"`)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestSimulateScriptedSwipe(t *testing.T) {
	s := loadTestShow(t, simPlaylist)
	inputs, err := parseInputs([]string{"1s=swipe:left"})
	require.NoError(t, err)
	var out bytes.Buffer

	_, err = simulate(s, inputs, time.Minute, 100*time.Millisecond, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"intro", "outro"}, subjectsPlayed(t, out.String()))
	assert.Contains(t, out.String(), `"event":"swipe.navigated"`)
}

func TestReport(t *testing.T) {
	s := loadTestShow(t, simPlaylist)
	var out bytes.Buffer
	require.NoError(t, report(s, &out))
	assert.Contains(t, out.String(), "subjects (3): intro, middle, outro")
	assert.Contains(t, out.String(), "media (3): image=3")

	dangling := loadTestShow(t, `<playlist><subject id="a" leadsTo="ghost"/></playlist>`)
	err := report(dangling, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestRelativeTo(t *testing.T) {
	assert.Equal(t, "/etc/show/playlist.xml", relativeTo("/etc/show/engine.yaml", "playlist.xml"))
	assert.Equal(t, "/abs.xml", relativeTo("/etc/show/engine.yaml", "/abs.xml"))
}
