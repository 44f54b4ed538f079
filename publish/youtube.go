package publish

import (
	"context"
	"fmt"
	"log"
	"os"
	"unicode/utf8"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"storyreel/config"
	"storyreel/video"
)

// Metadata describes an uploaded video.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
}

// YouTube uploads the merged video with a service account.
type YouTube struct {
	service *youtube.Service
	cfg     config.YouTubeConfig
}

// NewYouTube authenticates with the service account file in cfg.
func NewYouTube(ctx context.Context, cfg config.YouTubeConfig) (*YouTube, error) {
	data, err := os.ReadFile(cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}

	jwt, err := google.JWTConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account: %w", err)
	}

	service, err := youtube.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}

	return &YouTube{service: service, cfg: cfg}, nil
}

func (y *YouTube) Name() string { return "youtube" }

// Publish uploads the merged video and returns its watch URL.
func (y *YouTube) Publish(ctx context.Context, _, title string, res *video.Result) (string, error) {
	file, err := os.Open(res.Merged)
	if err != nil {
		return "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat video file: %w", err)
	}

	log.Printf("📤 Uploading: %s (%.2f MB)", res.Merged, float64(fileInfo.Size())/(1024*1024))

	meta := GenerateMetadata(title, y.cfg.CategoryID)
	v := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  meta.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           y.cfg.PrivacyStatus,
			SelfDeclaredMadeForKids: false,
		},
	}

	response, err := y.service.Videos.Insert([]string{"snippet", "status"}, v).Media(file).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}

	url := "https://youtube.com/watch?v=" + response.Id
	log.Printf("✅ Uploaded! %s", url)
	return url, nil
}

// GenerateMetadata builds upload metadata for a story video. YouTube limits
// titles to 100 characters.
func GenerateMetadata(title, categoryID string) Metadata {
	short := title
	if utf8.RuneCountInString(short) > 100 {
		short = string([]rune(short)[:97]) + "..."
	}

	return Metadata{
		Title:       short,
		Description: fmt.Sprintf("%s\n\nAn illustrated, narrated story.\n#story #shorts", title),
		Tags:        []string{"story", "narrated story", "illustrated story", "shorts"},
		CategoryID:  categoryID,
	}
}
