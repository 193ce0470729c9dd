package logging

const (
	// FieldError can be used instead of Err(err) if you have only the error message string.
	FieldError = "err"

	FieldComponent = "component"

	FieldDuration = "duration"

	FieldTxHash    = "txHash"
	FieldTxKind    = "txKind"
	FieldTxNonce   = "txNonce"
	FieldTxFrom    = "txFrom"
	FieldTxTo      = "txTo"
	FieldErrorCode = "errorCode"

	FieldGasLimit = "gasLimit"
	FieldGasUsed  = "gasUsed"

	FieldCodeHash = "codeHash"
	FieldInstance = "instance"
	FieldMethod   = "method"

	FieldBlockHeight = "blockHeight"
	FieldBlockTime   = "blockTime"
)
