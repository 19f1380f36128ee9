package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppError_WrapKeepsIdentity(t *testing.T) {
	cause := errors.New("sql: no rows")
	err := fmt.Errorf("lookup: %w", ErrNoSuchAsset.Wrap(cause))

	require.ErrorIs(t, err, ErrNoSuchAsset)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrNoSuchUser)
	require.Equal(t, KindCaller, KindOf(err))
	require.Equal(t, "lookup: no such assetid", err.Error())
}

func TestAppError_DistinctInvariants(t *testing.T) {
	require.NotErrorIs(t, ErrDuplicateAsset.Wrapf("x"), ErrDuplicateUser)
	require.Equal(t, ErrDuplicateUser.Error(), ErrCommon500.Error())
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindInternal, KindOf(errors.New("boom")))
	require.Equal(t, KindNotFound, KindOf(ErrThumbnailNotReady))
	require.Equal(t, KindInvariant, KindOf(ErrDuplicateUser))
	require.True(t, IsPermanent(ErrBadRequest))
	require.False(t, IsPermanent(ErrCommon500))
	require.False(t, IsPermanent(nil))
}

func TestDetectedLabel_Truncates(t *testing.T) {
	l := DetectedLabel{Name: "Boat", Confidence: 99.97}.ToLabel(1001)
	require.Equal(t, 99, l.Confidence)
	require.Equal(t, int64(1001), l.AssetID)

	l = DetectedLabel{Name: "Sky", Confidence: 90.0}.ToLabel(1)
	require.Equal(t, 90, l.Confidence)
}

func TestUploadRequest_Payload(t *testing.T) {
	require.Equal(t, "a", UploadRequest{Data: "a", ImgStr: "b"}.Payload())
	require.Equal(t, "b", UploadRequest{ImgStr: "b"}.Payload())
}

func TestThumbnailKey(t *testing.T) {
	require.Equal(t, "thumbnails/u/x-a.png", ThumbnailKey("u/x-a.png"))
}
