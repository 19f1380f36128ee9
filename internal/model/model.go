// Package model provides data-structs for internal app-usage
package model

type Asset struct {
	AssetID   int64  `json:"assetid"`
	UserID    int64  `json:"userid"`
	LocalName string `json:"localname"`
	BucketKey string `json:"bucketkey"`
}

type Label struct {
	AssetID    int64  `json:"-"`
	Name       string `json:"label"`
	Confidence int    `json:"confidence"`
}

// SearchHit - одна строка результата поиска по меткам
type SearchHit struct {
	AssetID    int64  `json:"assetid"`
	Name       string `json:"label"`
	Confidence int    `json:"confidence"`
}

type User struct {
	UserID     int64  `json:"userid"`
	Username   string `json:"username"`
	GivenName  string `json:"givenname"`
	FamilyName string `json:"familyname"`
}

// DetectedLabel - сырой результат детектора, уверенность 0..100 как float
type DetectedLabel struct {
	Name       string
	Confidence float32
}

// ToLabel отбрасывает дробную часть уверенности, без округления
func (d DetectedLabel) ToLabel(assetID int64) Label {
	return Label{AssetID: assetID, Name: d.Name, Confidence: int(d.Confidence)}
}

//---------------------

type UploadData struct {
	UserID        int64
	LocalFilename string
	Content       []byte
	ContentType   string
}

// UploadRequest - тело POST /image/:userid
type UploadRequest struct {
	LocalFilename string `json:"local_filename"`
	Data          string `json:"data"`
	ImgStr        string `json:"img_str"`
}

// Payload возвращает base64-строку из любого из двух допустимых полей
func (r UploadRequest) Payload() string {
	if r.Data != "" {
		return r.Data
	}
	return r.ImgStr
}

// AssetContent - результат Retrieve; Data кодируется в base64 при сериализации в JSON
type AssetContent struct {
	UserID      int64
	LocalName   string
	ContentType string
	Data        []byte
}

type ListRequest struct {
	UserID *int64 `form:"userid"`
}

type PingResult struct {
	M int `json:"M"`
	N int `json:"N"`
}

// IngestEvent публикуется в очередь после успешной загрузки
type IngestEvent struct {
	AssetID   int64  `json:"assetid"`
	UserID    int64  `json:"userid"`
	BucketKey string `json:"bucketkey"`
}

//--------------------

// Rekognition принимает inline только JPEG и PNG не больше 5MB
const (
	JPEG = "image/jpeg"
	PNG  = "image/png"

	MaxImageBytes = 5 << 20
)

const ThumbnailPrefix = "thumbnails/"

// ThumbnailKey - ключ превью в хранилище для исходного ключа
func ThumbnailKey(bucketKey string) string {
	return ThumbnailPrefix + bucketKey
}
