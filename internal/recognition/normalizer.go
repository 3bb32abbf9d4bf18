package recognition

import (
	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/surah"
)

// Normalize reconciles the remote classifier's response shapes into one
// canonical Result:
//
//  1. already-normalized: recognized + surahId + confidence
//  2. id-first: surahId with a separate recognized boolean; the server's
//     recognized flag is authoritative over its own surahId
//  3. name-first: surahName instead of surahId, resolved case-insensitively
//     against the surah table; an unresolvable name yields "not recognized"
//     rather than an error
//
// A confidence expressed as a fraction in (0,1] is scaled to a percentage
// exactly once here; callers never re-scale. Missing required fields produce
// a malformed-response error and the caller is expected to fall back.
func Normalize(raw *RawPrediction, source Source) (*Result, error) {
	if raw == nil {
		return nil, errors.Newf("prediction payload is empty").
			Component("recognition").
			Category(errors.CategoryMalformedResponse).
			Build()
	}
	if raw.Recognized == nil {
		return nil, errors.Newf("prediction is missing the recognized flag").
			Component("recognition").
			Category(errors.CategoryMalformedResponse).
			Build()
	}
	if raw.Confidence == nil {
		return nil, errors.Newf("prediction is missing a confidence value").
			Component("recognition").
			Category(errors.CategoryMalformedResponse).
			Build()
	}

	confidence := scaleConfidence(*raw.Confidence)

	if !*raw.Recognized {
		// The server says nothing was recognized; a surahId it may still
		// carry is ignored.
		return &Result{Recognized: false, Confidence: confidence, Source: source}, nil
	}

	switch {
	case raw.SurahID != nil:
		s, ok := surah.ByID(*raw.SurahID)
		if !ok {
			return &Result{Recognized: false, Confidence: confidence, Source: source}, nil
		}
		id := s.ID
		return &Result{
			Recognized: true,
			SurahID:    &id,
			SurahName:  s.NameEnglish,
			Confidence: confidence,
			Source:     source,
		}, nil

	case raw.SurahName != nil:
		s, ok := surah.MatchName(*raw.SurahName)
		if !ok {
			return &Result{Recognized: false, Confidence: confidence, Source: source}, nil
		}
		id := s.ID
		return &Result{
			Recognized: true,
			SurahID:    &id,
			SurahName:  s.NameEnglish,
			Confidence: confidence,
			Source:     source,
		}, nil

	default:
		return nil, errors.Newf("prediction claims recognition but carries neither surahId nor surahName").
			Component("recognition").
			Category(errors.CategoryMalformedResponse).
			Build()
	}
}

// scaleConfidence converts a fractional confidence in (0,1] to a percentage
// and clamps the final value into [0,100].
func scaleConfidence(confidence float64) float64 {
	if confidence > 0 && confidence <= 1 {
		confidence *= 100
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}
