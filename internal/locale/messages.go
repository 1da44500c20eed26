package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyGenre             = "genre"
	KeyActor             = "actor"
	KeySearchPlaceholder = "searchPlaceholder"
	KeySignUp            = "signUp"
	KeyLogin             = "login"
	KeyLogout            = "logout"

	KeyLoginRequired    = "loginRequired"
	KeyLoginFailed      = "loginFailed"
	KeyLoginError       = "loginError"
	KeyFieldsRequired   = "fieldsRequired"
	KeyPasswordMismatch = "passwordMismatch"
	KeyInvalidEmail     = "invalidEmail"
	KeyEmailTaken       = "emailTaken"
	KeyIDTaken          = "idTaken"
	KeyDuplicateValue   = "duplicateValue"
	KeySignUpFailed     = "signUpFailed"
	KeySignUpSuccess    = "signUpSuccess"

	KeyLoading   = "loading"
	KeyNotFound  = "notFound"
	KeyNoImage   = "noImage"
	KeyBack      = "back"
	KeyTitle     = "title"
	KeyRating    = "rating"
	KeyNoResults = "noResults"
	KeyLanguage  = "language"
	KeyUserID    = "userID"
	KeyEmail     = "email"
	KeyName      = "name"
	KeyPassword  = "password"
	KeyConfirm   = "confirm"
)

var tables = map[Locale]map[string]string{
	EnglishUS: {
		KeyGenre:             "Genre",
		KeyActor:             "Actor",
		KeySearchPlaceholder: "Please write the movie",
		KeySignUp:            "Sign Up",
		KeyLogin:             "Login",
		KeyLogout:            "Logout",
		KeyLoginRequired:     "Please enter your ID and password.",
		KeyLoginFailed:       "failed login",
		KeyLoginError:        "An error occurred while logging in.",
		KeyFieldsRequired:    "Please fill in every field.",
		KeyPasswordMismatch:  "Password and confirmation do not match.",
		KeyInvalidEmail:      "Please enter a valid email address.",
		KeyEmailTaken:        "This email is already in use.",
		KeyIDTaken:           "This ID is already in use.",
		KeyDuplicateValue:    "A duplicate value exists.",
		KeySignUpFailed:      "Registration failed: %s",
		KeySignUpSuccess:     "success sign up",
		KeyLoading:           "Loading...",
		KeyNotFound:          "Not found",
		KeyNoImage:           "No Image",
		KeyBack:              "Back",
		KeyTitle:             "Title",
		KeyRating:            "Rating",
		KeyNoResults:         "No movies found",
		KeyLanguage:          "Language",
		KeyUserID:            "ID",
		KeyEmail:             "Email",
		KeyName:              "Name",
		KeyPassword:          "Password",
		KeyConfirm:           "Confirm password",
	},
	JapaneseJP: {
		KeyGenre:             "ジャンル",
		KeyActor:             "俳優",
		KeySearchPlaceholder: "映画を書いてください",
		KeySignUp:            "登録",
		KeyLogin:             "ログイン",
		KeyLogout:            "ログアウト",
		KeyLoginRequired:     "IDとパスワードを入力してください。",
		KeyLoginFailed:       "ログインに失敗しました",
		KeyLoginError:        "ログイン中にエラーが発生しました。",
		KeyFieldsRequired:    "すべての項目を入力してください。",
		KeyPasswordMismatch:  "パスワードと確認用パスワードが一致しません。",
		KeyInvalidEmail:      "有効なメールアドレスを入力してください。",
		KeyEmailTaken:        "このメールアドレスは既に使用されています。",
		KeyIDTaken:           "このIDは既に使用されています。",
		KeyDuplicateValue:    "重複した値があります。",
		KeySignUpFailed:      "登録に失敗しました: %s",
		KeySignUpSuccess:     "登録が完了しました",
		KeyLoading:           "読み込み中...",
		KeyNotFound:          "見つかりません",
		KeyNoImage:           "画像なし",
		KeyBack:              "戻る",
		KeyTitle:             "タイトル",
		KeyRating:            "評価",
		KeyNoResults:         "映画が見つかりません",
		KeyLanguage:          "言語",
		KeyUserID:            "ID",
		KeyEmail:             "メール",
		KeyName:              "名前",
		KeyPassword:          "パスワード",
		KeyConfirm:           "パスワード確認",
	},
	KoreanKR: {
		KeyGenre:             "장르",
		KeyActor:             "배우",
		KeySearchPlaceholder: "영화를 입력하세요",
		KeySignUp:            "회원가입",
		KeyLogin:             "로그인",
		KeyLogout:            "로그아웃",
		KeyLoginRequired:     "아이디/비밀번호를 입력해 주세요.",
		KeyLoginFailed:       "로그인 실패",
		KeyLoginError:        "로그인 중 오류가 발생했습니다.",
		KeyFieldsRequired:    "모든 값을 입력해 주세요.",
		KeyPasswordMismatch:  "비밀번호와 확인이 일치하지 않습니다.",
		KeyInvalidEmail:      "올바른 이메일을 입력해 주세요.",
		KeyEmailTaken:        "이미 사용 중인 이메일입니다.",
		KeyIDTaken:           "이미 사용 중인 아이디입니다.",
		KeyDuplicateValue:    "중복된 값이 있습니다.",
		KeySignUpFailed:      "등록 실패: %s",
		KeySignUpSuccess:     "회원가입 성공",
		KeyLoading:           "불러오는 중...",
		KeyNotFound:          "찾을 수 없습니다",
		KeyNoImage:           "이미지 없음",
		KeyBack:              "뒤로",
		KeyTitle:             "제목",
		KeyRating:            "평점",
		KeyNoResults:         "영화가 없습니다",
		KeyLanguage:          "언어",
		KeyUserID:            "아이디",
		KeyEmail:             "이메일",
		KeyName:              "이름",
		KeyPassword:          "비밀번호",
		KeyConfirm:           "비밀번호 확인",
	},
}

var messages = newCatalog()

// newCatalog registers every table under its full and base tag. English is also registered under
// [language.Und], which every lookup reaches last, so a key missing from a table falls back to English.
func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.AmericanEnglish))
	register := func(tag language.Tag, table map[string]string) {
		for key, msg := range table {
			b.SetString(tag, key, msg)
		}
	}

	for l, table := range tables {
		register(l.Tag(), table)
		base, _ := l.Tag().Base()
		register(language.Make(base.String()), table)
	}
	register(language.Und, tables[Default])
	return b
}

// Printer returns a [message.Printer] for l backed by the application catalog.
func Printer(l Locale) *message.Printer {
	if !l.Supported() {
		l = Parse(string(l))
	}
	return message.NewPrinter(l.Tag(), message.Catalog(messages))
}

// T returns the message for key in l, formatted with args.
func T(l Locale, key string, args ...any) string {
	return Printer(l).Sprintf(key, args...)
}

// Strings returns the unformatted UI string table for l, used by API clients that render their own text.
func Strings(l Locale) map[string]string {
	base := tables[Default]
	table := tables[Parse(string(l))]
	out := make(map[string]string, len(base))
	for key, msg := range base {
		if localized, ok := table[key]; ok {
			msg = localized
		}
		out[key] = msg
	}
	return out
}
