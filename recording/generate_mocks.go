//go:generate mockgen -destination=mock_datarecorder.go -package=recording github.com/basestation/harqcore/recording DataRecorder

package recording
