// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// データセット操作・学習リクエスト・認証・成果物の各境界で発生する失敗を
// 型付きのエラーとして表現し、呼び出し側が errors.As で分岐できるようにします。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("automl-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ===========================================================================
//
//	データセット・特徴量セットのエラー型
//
// ===========================================================================

// EmptyDatasetError はカラムを一つも持たないテーブルを読み込もうとした場合のエラーです。
type EmptyDatasetError struct {
	Source string
}

func (e *EmptyDatasetError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("automl: dataset %q has no columns", e.Source)
	}
	return "automl: dataset has no columns"
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *EmptyDatasetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Str("type", "EmptyDatasetError")
}

// NewEmptyDatasetError は新しいEmptyDatasetErrorを作成し、スタックトレースを付与します。
func NewEmptyDatasetError(source string) error {
	return errors.WithStack(&EmptyDatasetError{Source: source})
}

// NoDatasetError はデータセットをアップロードする前にデータセット操作を要求した場合のエラーです。
type NoDatasetError struct {
	Op string
}

func (e *NoDatasetError) Error() string {
	return fmt.Sprintf("automl: %s: no dataset loaded, upload a dataset first", e.Op)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NoDatasetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("type", "NoDatasetError")
}

// NewNoDatasetError は新しいNoDatasetErrorを作成し、スタックトレースを付与します。
func NewNoDatasetError(op string) error {
	return errors.WithStack(&NoDatasetError{Op: op})
}

// UnknownColumnError は操作対象のカラムが期待される集合（アクティブまたは除外済み）に存在しない場合のエラーです。
type UnknownColumnError struct {
	Op      string
	Columns []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("automl: %s: unknown column(s): %s", e.Op, strings.Join(e.Columns, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnknownColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("columns", e.Columns).
		Str("type", "UnknownColumnError")
}

// NewUnknownColumnError は新しいUnknownColumnErrorを作成し、スタックトレースを付与します。
func NewUnknownColumnError(op string, columns ...string) error {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return errors.WithStack(&UnknownColumnError{Op: op, Columns: cols})
}

// ===========================================================================
//
//	学習リクエストのエラー型
//
// ===========================================================================

// InvalidTargetError はターゲットカラムがアクティブなテーブルに存在しない場合のエラーです。
type InvalidTargetError struct {
	Target string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("automl: invalid target %q: %s", e.Target, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidTargetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("target", e.Target).
		Str("reason", e.Reason).
		Str("type", "InvalidTargetError")
}

// NewInvalidTargetError は新しいInvalidTargetErrorを作成し、スタックトレースを付与します。
func NewInvalidTargetError(target, reason string) error {
	return errors.WithStack(&InvalidTargetError{Target: target, Reason: reason})
}

// InvalidSplitError は学習データの割合が開区間 (0, 1) の外にある場合のエラーです。
type InvalidSplitError struct {
	TrainFraction float64
}

func (e *InvalidSplitError) Error() string {
	return fmt.Sprintf("automl: invalid train fraction %v: must be strictly between 0 and 1", e.TrainFraction)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidSplitError) MarshalZerologObject(event *zerolog.Event) {
	event.Float64("train_fraction", e.TrainFraction).
		Str("type", "InvalidSplitError")
}

// NewInvalidSplitError は新しいInvalidSplitErrorを作成し、スタックトレースを付与します。
func NewInvalidSplitError(trainFraction float64) error {
	return errors.WithStack(&InvalidSplitError{TrainFraction: trainFraction})
}

// InsufficientFeaturesError はターゲット以外の説明変数が一つも残っていない場合のエラーです。
type InsufficientFeaturesError struct {
	Target    string
	Available int
}

func (e *InsufficientFeaturesError) Error() string {
	return fmt.Sprintf("automl: target %q leaves no predictor columns (%d active column(s))", e.Target, e.Available)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InsufficientFeaturesError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("target", e.Target).
		Int("available", e.Available).
		Str("type", "InsufficientFeaturesError")
}

// NewInsufficientFeaturesError は新しいInsufficientFeaturesErrorを作成し、スタックトレースを付与します。
func NewInsufficientFeaturesError(target string, available int) error {
	return errors.WithStack(&InsufficientFeaturesError{Target: target, Available: available})
}

// ===========================================================================
//
//	認証・成果物のエラー型
//
// ===========================================================================

// DuplicateUsernameError は既に登録済みのユーザー名で登録しようとした場合のエラーです。
type DuplicateUsernameError struct {
	Username string
}

func (e *DuplicateUsernameError) Error() string {
	return fmt.Sprintf("automl: username %q already exists, choose a different username", e.Username)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DuplicateUsernameError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("username", e.Username).
		Str("type", "DuplicateUsernameError")
}

// NewDuplicateUsernameError は新しいDuplicateUsernameErrorを作成し、スタックトレースを付与します。
func NewDuplicateUsernameError(username string) error {
	return errors.WithStack(&DuplicateUsernameError{Username: username})
}

// AuthenticationError は認証に失敗した場合、またはログインが必要な操作を未ログインで要求した場合のエラーです。
type AuthenticationError struct {
	Username string
	Reason   string
}

func (e *AuthenticationError) Error() string {
	if e.Username != "" {
		return fmt.Sprintf("automl: authentication failed for %q: %s", e.Username, e.Reason)
	}
	return fmt.Sprintf("automl: authentication failed: %s", e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *AuthenticationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("username", e.Username).
		Str("reason", e.Reason).
		Str("type", "AuthenticationError")
}

// NewAuthenticationError は新しいAuthenticationErrorを作成し、スタックトレースを付与します。
func NewAuthenticationError(username, reason string) error {
	return errors.WithStack(&AuthenticationError{Username: username, Reason: reason})
}

// ArtifactNotFoundError は学習が完了する前にモデルのダウンロードを要求した場合のエラーです。
type ArtifactNotFoundError struct {
	Kind string
	Path string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("automl: no %s model has been built yet, build a model first", e.Kind)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ArtifactNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("kind", e.Kind).
		Str("path", e.Path).
		Str("type", "ArtifactNotFoundError")
}

// NewArtifactNotFoundError は新しいArtifactNotFoundErrorを作成し、スタックトレースを付与します。
func NewArtifactNotFoundError(kind, path string) error {
	return errors.WithStack(&ArtifactNotFoundError{Kind: kind, Path: path})
}

// ===========================================================================
//
//	推定器の構造化エラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("automl: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("automl: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// `ValueError`よりも具体的なバリデーションロジックの失敗を示します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("automl: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("automl: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("automl: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("automl: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// TypeName はスタックのラッパーを取り除いた最も内側のエラーの型名を返します。
func TypeName(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%T", errors.UnwrapAll(err))
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
