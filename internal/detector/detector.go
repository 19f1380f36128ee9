// Package detector labels images with AWS Rekognition
package detector

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// rekognitionAPI - часть клиента, которая нужна детектору
type rekognitionAPI interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

type RekognitionDetector struct {
	client rekognitionAPI
}

func New(awsCfg aws.Config) *RekognitionDetector {
	return &RekognitionDetector{client: rekognition.NewFromConfig(awsCfg)}
}

// DetectLabels - не больше maxLabels меток с уверенностью от minConfidence (0..100)
func (d *RekognitionDetector) DetectLabels(ctx context.Context, image []byte, maxLabels int, minConfidence float32) ([]model.DetectedLabel, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image passed to label detector")
	}

	out, err := d.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(int32(maxLabels)),
		MinConfidence: aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, classify(err)
	}

	labels := make([]model.DetectedLabel, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}
		labels = append(labels, model.DetectedLabel{
			Name:       aws.ToString(l.Name),
			Confidence: aws.ToFloat32(l.Confidence),
		})
	}

	return labels, nil
}

// classify - отказы Rekognition по самой картинке повторять бессмысленно
func classify(err error) error {
	var (
		badFormat *types.InvalidImageFormatException
		tooLarge  *types.ImageTooLargeException
		badParam  *types.InvalidParameterException
	)
	switch {
	case errors.As(err, &badFormat), errors.As(err, &badParam):
		return model.ErrUnsupportedFormat.Wrapf("rekognition detect labels: %w", err)
	case errors.As(err, &tooLarge):
		return model.ErrImageTooLarge.Wrapf("rekognition detect labels: %w", err)
	default:
		return fmt.Errorf("rekognition detect labels: %w", err)
	}
}
