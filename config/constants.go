package config

import "time"

// Caption Segmentation Constants
const (
	// CaptionMaxWindow is the maximum caption length in code points
	CaptionMaxWindow = 21

	// CaptionPunctuation lists the break characters (full-width and half-width)
	CaptionPunctuation = "，。！？,.;!?"

	// CaptionQuotes are removed from scene text before segmentation
	CaptionQuotes = "\"'“”‘’"
)

// Job Folder Layout Constants
const (
	// PromptFileFormat names a scene's image prompt file
	PromptFileFormat = "%03d_picture_prompt.txt"

	// ImageFileFormat names a scene's generated illustration
	ImageFileFormat = "%03d_picture_prompt.png"

	// SubtitleFileFormat names one caption line of a scene
	SubtitleFileFormat = "%03d_subtitle_%03d.txt"

	// SubtitleAudioFormat names the narration of one caption line
	SubtitleAudioFormat = "%03d_subtitle_%03d.mp3"

	TitleTextFile  = "title.txt"
	TitleAudioFile = "title.mp3"
	TitleVideoFile = "title_video.mp4"
	MainVideoFile  = "main_video.mp4"
	MergedFile     = "merged_video.mp4"
)

// Video Output Constants
const (
	// VideoWidth is the output video width
	VideoWidth = 1024

	// VideoHeight is the output video height
	VideoHeight = 1024

	// VideoFPS is the output frame rate
	VideoFPS = 24

	// VideoCodec is the video encoding codec
	VideoCodec = "libx264"

	// AudioCodec is the audio encoding codec
	AudioCodec = "aac"

	// AudioBitrate is the audio quality bitrate
	AudioBitrate = "192k"

	// VideoPreset is the ffmpeg encoding speed preset
	VideoPreset = "fast"

	// BackgroundMusicVolume scales the music bed under the narration
	BackgroundMusicVolume = 0.5

	// CaptionFontSize is the font size of per-line captions
	CaptionFontSize = 50

	// TitleFontSize is the font size of the opening title
	TitleFontSize = 100

	// CaptionHeightRatio places captions at this fraction of the frame height
	CaptionHeightRatio = 0.9
)

// Generation Constants
const (
	// DefaultImageSize is the requested illustration size
	DefaultImageSize = "1024x1024"

	// DefaultImageTimeout bounds a single image generation call
	DefaultImageTimeout = 60 * time.Second

	// DefaultImageMaxAttempts bounds image attempts per scene, first pass included
	DefaultImageMaxAttempts = 4

	// DefaultImageRetryInitial is the first backoff delay of the sweep
	DefaultImageRetryInitial = 2 * time.Second

	// DefaultVoice and friends mirror the narration settings of the original videos
	DefaultVoice      = "zhiyuan"
	DefaultSpeechRate = -500
	DefaultPitchRate  = 0
	DefaultVolume     = 100
	DefaultSampleRate = 16000
	DefaultFormat     = "mp3"
)

// Service Constants
const (
	// DefaultAPIPort is the default port for the HTTP API server
	DefaultAPIPort = "8080"

	// JobStatusTTL keeps job snapshots in redis this long
	JobStatusTTL = 24 * time.Hour

	// MaxJobLogs is the size of each job's log ring buffer
	MaxJobLogs = 50

	// DefaultFeedCount is how many feed items become jobs in feed mode
	DefaultFeedCount = 3

	// ExtractorTimeout bounds fetching a story page
	ExtractorTimeout = 30 * time.Second
)
