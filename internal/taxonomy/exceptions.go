package taxonomy

// builtinExceptions are the exception classes of Python's builtins
// module available since 3.11. They need no import.
var builtinExceptions = map[string]bool{
	"BaseException": true, "BaseExceptionGroup": true, "GeneratorExit": true,
	"KeyboardInterrupt": true, "SystemExit": true, "Exception": true,
	"ArithmeticError": true, "FloatingPointError": true, "OverflowError": true,
	"ZeroDivisionError": true, "AssertionError": true, "AttributeError": true,
	"BufferError": true, "EOFError": true, "ExceptionGroup": true,
	"ImportError": true, "ModuleNotFoundError": true, "LookupError": true,
	"IndexError": true, "KeyError": true, "MemoryError": true,
	"NameError": true, "UnboundLocalError": true, "OSError": true,
	"EnvironmentError": true, "IOError": true, "BlockingIOError": true,
	"ChildProcessError": true, "ConnectionError": true, "BrokenPipeError": true,
	"ConnectionAbortedError": true, "ConnectionRefusedError": true, "ConnectionResetError": true,
	"FileExistsError": true, "FileNotFoundError": true, "InterruptedError": true,
	"IsADirectoryError": true, "NotADirectoryError": true, "PermissionError": true,
	"ProcessLookupError": true, "TimeoutError": true, "ReferenceError": true,
	"RuntimeError": true, "NotImplementedError": true, "RecursionError": true,
	"StopAsyncIteration": true, "StopIteration": true, "SyntaxError": true,
	"IndentationError": true, "TabError": true, "SystemError": true,
	"TypeError": true, "ValueError": true, "UnicodeError": true,
	"UnicodeDecodeError": true, "UnicodeEncodeError": true, "UnicodeTranslateError": true,
	"Warning": true, "BytesWarning": true, "DeprecationWarning": true,
	"EncodingWarning": true, "FutureWarning": true, "ImportWarning": true,
	"PendingDeprecationWarning": true, "ResourceWarning": true, "RuntimeWarning": true,
	"SyntaxWarning": true, "UnicodeWarning": true, "UserWarning": true,
}

// IsBuiltinException reports whether name is a builtin exception class.
func IsBuiltinException(name string) bool {
	return builtinExceptions[name]
}
