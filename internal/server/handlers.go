package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/matchcast/internal/api/generated"
	"github.com/dgnsrekt/matchcast/internal/hub"
	"github.com/dgnsrekt/matchcast/internal/playback"
	"github.com/dgnsrekt/matchcast/internal/replay"
	"github.com/dgnsrekt/matchcast/internal/ws"
)

// Server answers the read-only HTTP endpoints about the running broadcast.
type Server struct {
	dataset   *replay.Dataset
	cursor    *playback.Cursor
	pacer     *playback.Pacer
	hub       *hub.Hub
	gated     bool
	startedAt time.Time
	logger    *zap.Logger
}

func NewServer(dataset *replay.Dataset, cursor *playback.Cursor, pacer *playback.Pacer, h *hub.Hub, gated bool, logger *zap.Logger) *Server {
	return &Server{
		dataset:   dataset,
		cursor:    cursor,
		pacer:     pacer,
		hub:       h,
		gated:     gated,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// Ensure Server implements StrictServerInterface
var _ generated.StrictServerInterface = (*Server)(nil)

// GetHealth implements generated.StrictServerInterface
func (s *Server) GetHealth(ctx context.Context, request generated.GetHealthRequestObject) (generated.GetHealthResponseObject, error) {
	return generated.GetHealth200JSONResponse{Status: "ok"}, nil
}

// GetStatus implements generated.StrictServerInterface
func (s *Server) GetStatus(ctx context.Context, request generated.GetStatusRequestObject) (generated.GetStatusResponseObject, error) {
	mode := generated.Immediate
	if s.gated {
		mode = generated.Gated
	}

	attached := s.hub.Subscribers()
	subscribers := make([]generated.SubscriberInfo, 0, len(attached))
	for _, sub := range attached {
		subscribers = append(subscribers, generated.SubscriberInfo{
			Id:            sub.ID,
			Transport:     generated.SubscriberInfoTransport(sub.Transport),
			Remote:        sub.Remote,
			JoinStep:      sub.JoinStep,
			LastDelivered: sub.LastDelivered,
			ConnectedAt:   sub.ConnectedAt,
		})
	}

	return generated.GetStatus200JSONResponse{
		Match:       s.dataset.Name(),
		Step:        s.cursor.Current(),
		StepCount:   s.dataset.StepCount(),
		State:       generated.StatusResponseState(s.pacer.State().String()),
		Mode:        mode,
		Uptime:      time.Since(s.startedAt).Round(time.Second).String(),
		Subscribers: subscribers,
	}, nil
}

// GetNegotiate implements generated.StrictServerInterface
func (s *Server) GetNegotiate(ctx context.Context, request generated.GetNegotiateRequestObject) (generated.GetNegotiateResponseObject, error) {
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok {
		return nil, errNoRequest
	}

	ep := ws.EndpointsFor(r)
	s.logger.Debug("negotiate", zap.String("remote", r.RemoteAddr))

	return generated.GetNegotiate200JSONResponse{
		Match: s.dataset.Name(),
		Urls: generated.NegotiateURLs{
			Monitor: ep.Monitor,
			Events:  ep.Events,
			Status:  ep.Status,
		},
		Subprotocols: ws.Subprotocols(),
	}, nil
}
