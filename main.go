package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang/glog"

	"SharedBoard/internal/config"
	"SharedBoard/internal/edit"
	"SharedBoard/internal/export"
	"SharedBoard/internal/identity"
	"SharedBoard/internal/meta"
	boardnet "SharedBoard/internal/net"
	"SharedBoard/internal/relay"
	"SharedBoard/internal/session"
	"SharedBoard/internal/state"
)

const SharedBoardVersion = "0.1.0"

const usage = `SharedBoard collaborative canvas.

Usage:
    sharedboard host [--port=<port>] [--no-mdns]
    sharedboard join <document> [--url=<url>] [--token=<token>] [--discover]
    sharedboard export <document> <out.pdf> [--url=<url>] [--token=<token>]

Options:
    -h --help          Show this screen.
    --version          Show version.
    --port=<port>      Relay port, overrides PORT.
    --no-mdns          Do not advertise the relay on the local network.
    --url=<url>        Relay address [default: http://127.0.0.1:8888].
    --token=<token>    Credential (JWT). Without one you join as a guest.
    --discover         Find a relay on the local network instead of --url.`

const reconnectTimeout = 2 * time.Second

func main() {
	// glog reads its settings from the flag package
	flag.CommandLine.Parse([]string{})
	flag.Set("logtostderr", "true")
	defer glog.Flush()

	opts, err := docopt.ParseArgs(usage, os.Args[1:], SharedBoardVersion)
	if err != nil {
		glog.Fatalf("%v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		glog.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if host, _ := opts.Bool("host"); host {
		err = runHost(ctx, opts, cfg)
	} else if join, _ := opts.Bool("join"); join {
		err = runJoin(ctx, opts, cfg)
	} else if exp, _ := opts.Bool("export"); exp {
		err = runExport(ctx, opts, cfg)
	}
	if err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func runHost(ctx context.Context, opts docopt.Opts, cfg *config.Config) error {
	if port, err := opts.String("--port"); err == nil && port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("--port: %w", err)
		}
		cfg.Port = p
	}

	store, err := meta.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	verifier := identity.NewVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		glog.Warning("[HOST] JWT_SECRET is not set, credentials are trusted unverified")
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	relay.NewServer(relay.New(cfg.Canvas(), nil), verifier).Routes(router)
	meta.NewHandlers(store, verifier.Authenticate).Routes(router)

	noMDNS, _ := opts.Bool("--no-mdns")
	if cfg.MDNSEnabled && !noMDNS {
		mdnsServer, err := boardnet.Advertise(cfg.Port)
		if err != nil {
			glog.Warningf("[HOST] mdns: %v", err)
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	glog.Infof("[HOST] relay listening on :%d, share http://%s:%d", cfg.Port, boardnet.OutgoingIP(), cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func relayURL(ctx context.Context, opts docopt.Opts) (string, error) {
	if discover, _ := opts.Bool("--discover"); discover {
		return boardnet.Discover(ctx, 3*time.Second)
	}
	return opts.String("--url")
}

func newSession(cfg *config.Config, documentID string, user identity.Identity) *session.Session {
	return session.New(session.Config{
		DocumentID: documentID,
		Canvas:     cfg.Canvas(),
		Viewport:   cfg.Viewport(),
		Minimap:    cfg.Minimap(),
		UndoLimit:  cfg.UndoLimit,
	}, user)
}

// connect dials the room and keeps the session attached, rejoining after
// every drop until ctx ends.
func connect(ctx context.Context, s *session.Session, roomURL, token string) error {
	conn, err := boardnet.Dial(ctx, roomURL, token)
	if err != nil {
		return err
	}
	if err := s.Connect(conn); err != nil {
		return err
	}
	go func() {
		for {
			s.Lost(conn.Run(s.Receive))
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(reconnectTimeout):
				}
				conn, err = boardnet.Dial(ctx, roomURL, token)
				if err == nil {
					err = rejoin(s, conn)
				}
				if err == nil {
					break
				}
				glog.Infof("[SESSION] reconnect failed: %v", err)
			}
		}
	}()
	return nil
}

// rejoin reattaches s to a fresh connection, closing it if the room can not
// be joined so the next attempt starts clean.
func rejoin(s *session.Session, conn interface {
	session.Channel
	Close() error
}) error {
	if err := s.Rejoin(conn); err != nil {
		conn.Close()
		return err
	}
	return nil
}

func runJoin(ctx context.Context, opts docopt.Opts, cfg *config.Config) error {
	documentID, _ := opts.String("<document>")
	token, _ := opts.String("--token")
	base, err := relayURL(ctx, opts)
	if err != nil {
		return err
	}
	roomURL, err := boardnet.RoomURL(base, documentID)
	if err != nil {
		return err
	}

	user := identity.OrGuest(token)
	if user.Guest() {
		fmt.Printf("You are editing as a guest (%s). Sign in to rename documents.\n", user.Username)
	}
	docs := meta.NewClient(base, token)
	if m, err := docs.Get(ctx, documentID); err == nil {
		fmt.Printf("Document %q, owned by %s\n", m.Name, m.OwnerID)
	}

	s := newSession(cfg, documentID, user)
	s.OnRoster = func(users []state.Presence) {
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		fmt.Printf("online: %s\n", strings.Join(names, ", "))
	}
	s.OnConnectivityLost = func(err error) {
		fmt.Printf("connection lost (%v), reconnecting...\n", err)
	}
	if err := connect(ctx, s, roomURL, token); err != nil {
		return err
	}

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		if err := command(ctx, s, docs, strings.Fields(in.Text())); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Printf("error: %v\n", err)
		}
	}
	return in.Err()
}

var errQuit = errors.New("quit")

// command runs one console line against the session.
func command(ctx context.Context, s *session.Session, docs *meta.Client, args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "stroke":
		pts, err := parsePoints(args[1:])
		if err != nil {
			return err
		}
		return gesture(s, edit.Pen(), pts)
	case "shape":
		if len(args) < 2 {
			return errors.New("usage: shape <kind> x,y x,y")
		}
		pts, err := parsePoints(args[2:])
		if err != nil {
			return err
		}
		return gesture(s, edit.ShapeTool(state.ShapeKind(args[1])), pts)
	case "text":
		if len(args) < 4 {
			return errors.New("usage: text x,y x,y words...")
		}
		pts, err := parsePoints(args[1:3])
		if err != nil {
			return err
		}
		if err := gesture(s, edit.Text(), pts); err != nil {
			return err
		}
		return s.SubmitText(strings.Join(args[3:], " "))
	case "fill":
		if len(args) != 2 {
			return errors.New("usage: fill #rrggbb")
		}
		if err := s.SetTool(edit.Fill()); err != nil {
			return err
		}
		s.SetColor(args[1])
		return s.PointerDown(state.Point{})
	case "color":
		if len(args) != 2 {
			return errors.New("usage: color #rrggbb")
		}
		s.SetColor(args[1])
	case "pan":
		pts, err := parsePoints(args[1:])
		if err != nil || len(pts) != 1 {
			return errors.New("usage: pan dx,dy")
		}
		fmt.Printf("view at %v\n", s.Pan(pts[0].X, pts[0].Y))
	case "undo":
		return s.Undo()
	case "redo":
		return s.Redo()
	case "clear":
		return s.ClearBoard()
	case "rename":
		m, err := docs.Rename(ctx, s.DocumentID(), strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("renamed to %q\n", m.Name)
	case "docs":
		list, err := docs.List(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		for _, m := range list {
			fmt.Printf("%s  %s  (updated %s)\n", m.ID, m.Name, m.UpdatedAt.Format(time.DateTime))
		}
	case "status":
		snap := s.Snapshot()
		fmt.Printf("size %v, %d strokes, %d text boxes, %d shapes, %d images, view %v\n",
			snap.Size, len(snap.Strokes), len(snap.TextBoxes), len(snap.Shapes), len(snap.Images), s.VisibleRect())
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

// gesture replays a pointer gesture through the edit pipeline.
func gesture(s *session.Session, tool edit.Tool, pts []state.Point) error {
	if len(pts) < 2 {
		return errors.New("need at least two points")
	}
	if err := s.SetTool(tool); err != nil {
		return err
	}
	if err := s.PointerDown(pts[0]); err != nil {
		return err
	}
	for _, p := range pts[1:] {
		s.PointerMove(p)
	}
	return s.PointerUp(pts[len(pts)-1])
}

func parsePoints(args []string) ([]state.Point, error) {
	pts := make([]state.Point, 0, len(args))
	for _, a := range args {
		xs, ys, ok := strings.Cut(a, ",")
		if !ok {
			return nil, fmt.Errorf("bad point %q, want x,y", a)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, err
		}
		pts = append(pts, state.Point{X: x, Y: y})
	}
	return pts, nil
}

func runExport(ctx context.Context, opts docopt.Opts, cfg *config.Config) error {
	documentID, _ := opts.String("<document>")
	out, _ := opts.String("<out.pdf>")
	token, _ := opts.String("--token")
	base, _ := opts.String("--url")
	roomURL, err := boardnet.RoomURL(base, documentID)
	if err != nil {
		return err
	}

	s := newSession(cfg, documentID, identity.OrGuest(token))
	replayed := make(chan struct{}, 1)
	s.OnEvent = func(ev state.Event, _ bool) {
		if ev.Type == state.EventReplay {
			select {
			case replayed <- struct{}{}:
			default:
			}
		}
	}
	conn, err := boardnet.Dial(ctx, roomURL, token)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := s.Connect(conn); err != nil {
		return err
	}
	go conn.Run(s.Receive)

	select {
	case <-replayed:
	case <-time.After(10 * time.Second):
		return errors.New("timed out waiting for the document")
	case <-ctx.Done():
		return ctx.Err()
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.PDF(f, s.Snapshot()); err != nil {
		return err
	}
	glog.Infof("[EXPORT] wrote %s", out)
	return nil
}
