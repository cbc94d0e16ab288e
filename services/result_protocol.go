package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/prediction-pool/brackets"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

func validateResultUpdate(update models.ResultUpdate) error {
	if update.GameID <= 0 {
		return fmt.Errorf("%w: game id is required", ErrValidationFailed)
	}
	if update.HomeScore < 0 || update.AwayScore < 0 {
		return fmt.Errorf("%w: scores cannot be negative", ErrValidationFailed)
	}
	if (update.HomePenalty == nil) != (update.AwayPenalty == nil) {
		return fmt.Errorf("%w: penalties need both sides", ErrValidationFailed)
	}
	if update.HomePenalty != nil && (*update.HomePenalty < 0 || *update.AwayPenalty < 0) {
		return fmt.Errorf("%w: penalties cannot be negative", ErrValidationFailed)
	}
	if update.Status != models.ResultDraft && update.Status != models.ResultPublished {
		return fmt.Errorf("%w: unknown result status %q", ErrValidationFailed, update.Status)
	}
	return nil
}

func (s *scoreService) UpdateGameResult(ctx context.Context, update models.ResultUpdate) (*models.GameResult, *RecalculationReport, error) {
	if err := validateResultUpdate(update); err != nil {
		return nil, nil, err
	}
	game, err := s.repos.Games.GetByID(ctx, nil, update.GameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch game %d: %w", update.GameID, mapRepositoryError(err))
	}
	existing, err := s.repos.Results.GetByGameID(ctx, nil, update.GameID)
	if err != nil && !errors.Is(err, repositories.ErrResultNotFound) {
		return nil, nil, fmt.Errorf("failed to fetch result of game %d: %w", update.GameID, err)
	}
	if existing != nil && existing.InProtocol() {
		return existing, nil, fmt.Errorf("game %d is in state %s: %w", update.GameID, existing.ProtocolState, ErrProtocolInterrupted)
	}

	next := &models.GameResult{
		GameID:        update.GameID,
		HomeScore:     update.HomeScore,
		AwayScore:     update.AwayScore,
		HomePenalty:   update.HomePenalty,
		AwayPenalty:   update.AwayPenalty,
		Status:        update.Status,
		ProtocolState: models.ProtocolPublished,
	}
	wasPublished := existing != nil && existing.Status == models.ResultPublished
	unchanged := existing != nil && existing.Status == update.Status && existing.SameScores(*next)

	report := newReport(TriggerResultUpdate)
	switch {
	case unchanged:
		return existing, report, nil

	case wasPublished && update.Status == models.ResultPublished:
		// Phase A: take the result out of the published set with the new scores.
		next.Status = models.ResultDraft
		next.ProtocolState = models.ProtocolDraftPendingCleanup
		if err := s.repos.Results.Upsert(ctx, nil, next); err != nil {
			return nil, nil, fmt.Errorf("failed to start amendment of game %d: %w", update.GameID, mapRepositoryError(err))
		}
		s.logger.Info("result amendment started", slog.Int("game_id", next.GameID),
			slog.Int("old_home", existing.HomeScore), slog.Int("old_away", existing.AwayScore),
			slog.Int("new_home", next.HomeScore), slog.Int("new_away", next.AwayScore))
		if err := s.runProtocol(ctx, next, report); err != nil {
			return next, report, err
		}

	default:
		if err := s.repos.Results.Upsert(ctx, nil, next); err != nil {
			return nil, nil, fmt.Errorf("failed to store result of game %d: %w", update.GameID, mapRepositoryError(err))
		}
		switch {
		case next.Status == models.ResultPublished:
			if err := s.recalculate(ctx, []int{next.GameID}, report); err != nil {
				return next, report, err
			}
		case wasPublished:
			// Unpublished: the points it gave must go.
			if err := s.cleanup(ctx, report); err != nil {
				return next, report, err
			}
		}
	}

	s.publisher.Publish(game.TournamentID, brackets.MessageResultUpdated, ResultUpdatePayload{GameID: next.GameID, Status: next.Status})
	s.refreshBracket(ctx, game.TournamentID)
	s.finish(ctx, report)
	return next, report, nil
}

func (s *scoreService) ResumeProtocol(ctx context.Context, gameID int) (*models.GameResult, *RecalculationReport, error) {
	result, err := s.repos.Results.GetByGameID(ctx, nil, gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch result of game %d: %w", gameID, mapRepositoryError(err))
	}
	if !result.InProtocol() {
		return result, nil, fmt.Errorf("game %d: %w", gameID, ErrNothingToResume)
	}
	game, err := s.repos.Games.GetByID(ctx, nil, gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch game %d: %w", gameID, mapRepositoryError(err))
	}

	s.logger.Info("resuming result amendment", slog.Int("game_id", gameID), slog.String("state", string(result.ProtocolState)))
	report := newReport(TriggerResume)
	if err := s.runProtocol(ctx, result, report); err != nil {
		return result, report, err
	}

	s.publisher.Publish(game.TournamentID, brackets.MessageResultUpdated, ResultUpdatePayload{GameID: gameID, Status: result.Status})
	s.refreshBracket(ctx, game.TournamentID)
	s.finish(ctx, report)
	return result, report, nil
}

func (s *scoreService) ResumeInterrupted(ctx context.Context) (int, error) {
	pending, err := s.repos.Results.ListInterrupted(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list interrupted amendments: %w", err)
	}
	resumed := 0
	var errs []error
	for _, r := range pending {
		if _, _, err := s.ResumeProtocol(ctx, r.GameID); err != nil {
			errs = append(errs, err)
			continue
		}
		resumed++
	}
	return resumed, errors.Join(errs...)
}

// runProtocol drives an amendment from its current state to ProtocolPublished:
//
//	draft_pending_cleanup -> cleaned_up -> republished_pending -> published
//
// Every phase is idempotent and its state is stored before the next phase starts,
// so a failed run can be resumed from the stored state.
func (s *scoreService) runProtocol(ctx context.Context, result *models.GameResult, report *RecalculationReport) error {
	for {
		switch result.ProtocolState {
		case models.ProtocolDraftPendingCleanup:
			// Phase B: null every guess still scored against a draft result.
			if err := s.cleanup(ctx, report); err != nil {
				return fmt.Errorf("amendment of game %d, cleanup: %w", result.GameID, err)
			}
			result.ProtocolState = models.ProtocolCleanedUp

		case models.ProtocolCleanedUp:
			// Phase C: publish the corrected scores.
			result.Status = models.ResultPublished
			result.ProtocolState = models.ProtocolRepublishedPending

		case models.ProtocolRepublishedPending:
			// Phase D: score again from scratch.
			if err := s.recalculate(ctx, []int{result.GameID}, report); err != nil {
				return fmt.Errorf("amendment of game %d, rescoring: %w", result.GameID, err)
			}
			if report.Failed(result.GameID) {
				return fmt.Errorf("amendment of game %d, rescoring failed", result.GameID)
			}
			result.ProtocolState = models.ProtocolPublished

		case models.ProtocolPublished, "":
			return nil

		default:
			return fmt.Errorf("%w: game %d has unknown protocol state %q", ErrValidationFailed, result.GameID, result.ProtocolState)
		}

		if err := s.repos.Results.Upsert(ctx, nil, result); err != nil {
			return fmt.Errorf("failed to store amendment state %s of game %d: %w", result.ProtocolState, result.GameID, err)
		}
		s.logger.Debug("amendment phase done", slog.Int("game_id", result.GameID), slog.String("state", string(result.ProtocolState)))
	}
}
