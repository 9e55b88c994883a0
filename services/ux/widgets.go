package ux

import (
	"context"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/registry"
	"github.com/balazsgrill/actiongate/internal/validate"
)

// decode fills a copy of defaults from doc.
func decode[T any](doc actiongate.Document, defaults T) (T, error) {
	cfg := defaults
	err := validate.Decode(doc, &cfg)
	return cfg, err
}

type SnackbarConfig struct {
	Type      string        `json:"type" validate:"oneof=error warning success info"`
	Message   string        `json:"message" validate:"required"`
	HideAfter validate.Text `json:"hide_after" validate:"numeric"`
	PositionX string        `json:"position_x"`
	PositionY string        `json:"position_y"`
}

func defaultSnackbar() SnackbarConfig {
	return SnackbarConfig{Type: "success", HideAfter: "6000", PositionX: "center", PositionY: "bottom"}
}

type Snackbar struct {
	widget
	config SnackbarConfig
}

func (w *Snackbar) Validate(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
	cfg, err := decode(config, defaultSnackbar())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (w *Snackbar) SetUp(_ context.Context, init actiongate.Document) (err error) {
	if w.config, err = decode(init, defaultSnackbar()); err != nil {
		return err
	}
	return w.setUpLocation()
}

func (w *Snackbar) Run(_ context.Context, params actiongate.Document) (actiongate.Result, error) {
	return respond(params,
		Fragment{Tag: "div", Props: actiongate.Document{
			"class":           "tracardi-uix-snackbar",
			"data-type":       w.config.Type,
			"data-message":    w.dot(params).Render(w.config.Message),
			"data-vertical":   w.config.PositionY,
			"data-horizontal": w.config.PositionX,
			"data-auto-hide":  w.config.HideAfter.String(),
		}},
		script(w.location.Asset("snackbar", "index.js")),
	), nil
}

func snackbarPlugin() registry.Plugin {
	return widgetPlugin("SnackBarUx", "Show snack bar", "Shows snack bar pop-up on the front end.",
		"Risto Kowaczewski", "",
		actiongate.Document{
			"type":       "success",
			"message":    "",
			"hide_after": 6000,
			"position_x": "center",
			"position_y": "bottom",
		},
		registry.FormGroup{
			Name: "Widget Message Configuration",
			Fields: []registry.FormField{
				field("message", "Pop-up message", "Provide message that will be shown on the web page.", "textarea", "message"),
				selectField("type", "Alert type", "Select alert type.", "Alert type", actiongate.Document{
					"error": "Error", "warning": "Warning", "success": "Success", "info": "Info",
				}),
				field("hide_after", "Hide message after", "Type number of milliseconds the message must be visible. Default: 6000. 6sec.", "text", "hide after"),
				verticalField("position_y", "Select where would you like to place the message."),
				horizontalField("position_x", "Select where would you like to place the message."),
			},
		},
	)
}

type RatingConfig struct {
	APIURL             string        `json:"api_url" validate:"required"`
	Title              string        `json:"title"`
	Message            string        `json:"message" validate:"required"`
	Lifetime           validate.Text `json:"lifetime" validate:"required,numeric"`
	HorizontalPosition string        `json:"horizontal_position"`
	VerticalPosition   string        `json:"vertical_position"`
	EventType          string        `json:"event_type" validate:"required"`
	SaveEvent          bool          `json:"save_event"`
	DarkTheme          bool          `json:"dark_theme"`
}

func defaultRating() RatingConfig {
	return RatingConfig{
		APIURL:             "http://localhost:8686",
		Lifetime:           "6",
		HorizontalPosition: "center",
		VerticalPosition:   "bottom",
		SaveEvent:          true,
	}
}

type RatingPopup struct {
	widget
	config RatingConfig
}

func (w *RatingPopup) Validate(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
	cfg, err := decode(config, defaultRating())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (w *RatingPopup) SetUp(_ context.Context, init actiongate.Document) (err error) {
	if w.config, err = decode(init, defaultRating()); err != nil {
		return err
	}
	return w.setUpLocation()
}

func (w *RatingPopup) Run(_ context.Context, params actiongate.Document) (actiongate.Result, error) {
	v := visitorOf(params)
	return respond(params,
		Fragment{Tag: "div", Props: actiongate.Document{
			"class":                    "tracardi-uix-rating-widget",
			"data-position-vertical":   w.config.VerticalPosition,
			"data-position-horizontal": w.config.HorizontalPosition,
			"data-title":               w.config.Title,
			"data-message":             w.dot(params).Render(w.config.Message),
			"data-event-type":          w.config.EventType,
			"data-api-url":             w.config.APIURL,
			"data-theme":               theme(w.config.DarkTheme),
			"data-auto-hide":           w.config.Lifetime.String(),
			"data-source-id":           v.source,
			"data-profile-id":          v.profile,
			"data-session-id":          v.session,
			"data-save-event":          yesNo(w.config.SaveEvent),
		}},
		script(w.location.Asset("rating_popup", "index.js")),
	), nil
}

func ratingPlugin() registry.Plugin {
	return widgetPlugin("RatingPopupPlugin", "Rating widget", "Shows rating widget with defined title and content.",
		"Dawid Kruk, Risto Kowaczewski", "rating_popup_action",
		actiongate.Document{
			"api_url":             "http://localhost:8686",
			"title":               nil,
			"message":             nil,
			"lifetime":            "6",
			"horizontal_position": "center",
			"vertical_position":   "bottom",
			"event_type":          nil,
			"save_event":          true,
			"dark_theme":          false,
		},
		registry.FormGroup{
			Name: "Plugin configuration",
			Fields: []registry.FormField{
				field("title", "Title", "This text will become a title for your rating popup.", "text", "Title"),
				field("message", "Popup message", "That's the message to be displayed in the rating popup. You can use a template here.", "textarea", "Message"),
				field("lifetime", "Popup lifetime", "Please provide a number of seconds for the rating popup to be displayed.", "text", "Lifetime"),
			},
		},
		registry.FormGroup{
			Name: "Positioning and Styling",
			Fields: []registry.FormField{
				horizontalField("horizontal_position", "That's the horizontal position of your popup."),
				verticalField("vertical_position", "That's the vertical position of your popup."),
				darkThemeField(),
			},
		},
		registry.FormGroup{
			Name: "Reporting rating",
			Fields: []registry.FormField{
				field("api_url", "API URL", "Provide a URL of Tracardi instance to send event with rating.", "text", "API URL"),
				field("event_type", "Event type", "Please provide a type of event to be sent back after selecting rating.", "text", "Event type"),
				saveEventField(),
			},
		},
	)
}

type Sides struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

type BoxStyling struct {
	Margin  Sides `json:"margin"`
	Padding Sides `json:"padding"`
	Color   struct {
		Background string `json:"background"`
		Text       string `json:"text"`
	} `json:"color"`
	Border struct {
		Size   float64 `json:"size"`
		Radius float64 `json:"radius"`
		Color  string  `json:"color"`
	} `json:"border"`
}

type QuestionConfig struct {
	APIURL          string        `json:"api_url" validate:"required"`
	PopupTitle      string        `json:"popup_title"`
	Content         string        `json:"content"`
	LeftButtonText  string        `json:"left_button_text" validate:"required"`
	RightButtonText string        `json:"right_button_text" validate:"required"`
	HorizontalPos   string        `json:"horizontal_pos"`
	VerticalPos     string        `json:"vertical_pos"`
	EventType       string        `json:"event_type" validate:"required"`
	SaveEvent       bool          `json:"save_event"`
	PopupLifetime   validate.Text `json:"popup_lifetime" validate:"required,numeric"`
	DarkTheme       bool          `json:"dark_theme"`
	Styling         BoxStyling    `json:"styling"`
}

func defaultQuestion() QuestionConfig {
	cfg := QuestionConfig{
		APIURL:        "http://localhost:8686",
		HorizontalPos: "center",
		VerticalPos:   "bottom",
		SaveEvent:     true,
		PopupLifetime: "6",
	}
	cfg.Styling.Color.Background = "rgba(229,229,229,0.9)"
	cfg.Styling.Color.Text = "rgba(0,0,0,1)"
	cfg.Styling.Border.Color = "black"
	return cfg
}

type QuestionPopup struct {
	widget
	config QuestionConfig
}

func (w *QuestionPopup) Validate(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
	cfg, err := decode(config, defaultQuestion())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (w *QuestionPopup) SetUp(_ context.Context, init actiongate.Document) (err error) {
	if w.config, err = decode(init, defaultQuestion()); err != nil {
		return err
	}
	return w.setUpLocation()
}

func (w *QuestionPopup) Run(_ context.Context, params actiongate.Document) (actiongate.Result, error) {
	v := visitorOf(params)
	st := w.config.Styling
	return respond(params,
		Fragment{Tag: "div", Props: actiongate.Document{
			"class":                    "tracardi-question-widget",
			"data-api-url":             w.config.APIURL,
			"data-source-id":           v.source,
			"data-session-id":          v.session,
			"data-left-button-text":    w.config.LeftButtonText,
			"data-right-button-text":   w.config.RightButtonText,
			"data-popup-title":         w.config.PopupTitle,
			"data-content":             w.dot(params).Render(w.config.Content),
			"data-horizontal-position": w.config.HorizontalPos,
			"data-vertical-position":   w.config.VerticalPos,
			"data-popup-lifetime":      w.config.PopupLifetime.String(),
			"data-bg-color":            st.Color.Background,
			"data-event-type":          w.config.EventType,
			"data-text-color":          st.Color.Text,
			"data-border-width":        st.Border.Size,
			"data-border-radius":       st.Border.Radius,
			"data-border-color":        st.Border.Color,
			"data-padding-left":        st.Padding.Left,
			"data-padding-right":       st.Padding.Right,
			"data-padding-top":         st.Padding.Top,
			"data-padding-bottom":      st.Padding.Bottom,
			"data-margin-left":         st.Margin.Left,
			"data-margin-right":        st.Margin.Right,
			"data-margin-top":          st.Margin.Top,
			"data-margin-bottom":       st.Margin.Bottom,
			"data-save-event":          yesNo(w.config.SaveEvent),
			"data-profile-id":          v.profile,
		}},
		script(w.location.Asset("question-popup", "index.js")),
	), nil
}

func questionPlugin() registry.Plugin {
	sides := func() actiongate.Document {
		return actiongate.Document{"left": 0, "top": 0, "right": 0, "bottom": 0}
	}
	return widgetPlugin("QuestionPopupPlugin", "Question popup", "Shows question popup to user, according to configuration.",
		"Dawid Kruk, Risto Kowaczewski", "question_popup_action",
		actiongate.Document{
			"api_url":           "http://localhost:8686",
			"popup_title":       "",
			"content":           "",
			"left_button_text":  nil,
			"right_button_text": nil,
			"horizontal_pos":    "center",
			"vertical_pos":      "bottom",
			"event_type":        nil,
			"save_event":        true,
			"popup_lifetime":    "6",
			"styling": actiongate.Document{
				"margin":  sides(),
				"padding": sides(),
				"color":   actiongate.Document{"background": "rgba(229,229,229,0.9)", "text": "rgba(0,0,0,1)"},
				"border":  actiongate.Document{"size": 0, "radius": 0, "color": "black"},
			},
		},
		registry.FormGroup{
			Name: "Pop-up configuration",
			Fields: []registry.FormField{
				field("popup_title", "Popup title", "This text will become a title for your popup.", "text", "Title"),
				field("content", "Popup content", "That's the message to be displayed in the popup. You can use a template here.", "textarea", "Message"),
				field("popup_lifetime", "Popup lifetime", "Please provide a number of seconds for the popup to be displayed.", "text", "Lifetime"),
			},
		},
		registry.FormGroup{
			Name: "Button text",
			Fields: []registry.FormField{
				field("left_button_text", "Left button text", "That's the text to be displayed on the left button. It will be sent back in event properties if left button gets clicked.", "text", "Left button"),
				field("right_button_text", "Right button text", "That's the text to be displayed on the right button. It will be sent back in event properties if right button gets clicked.", "text", "Right button"),
			},
		},
		registry.FormGroup{
			Name: "Positioning",
			Fields: []registry.FormField{
				horizontalField("horizontal_pos", "That's the horizontal position of your popup."),
				verticalField("vertical_pos", "That's the vertical position of your popup."),
			},
		},
		registry.FormGroup{
			Name: "Styling",
			Fields: []registry.FormField{{
				ID:        "styling",
				Name:      "Pop-up styling",
				Component: registry.FormComponent{Type: "boxStyling", Props: actiongate.Document{}},
			}},
		},
		registry.FormGroup{
			Name:        "Event configuration",
			Description: "When the user answers the question an event will be sent back to Tracardi.",
			Fields: []registry.FormField{
				field("api_url", "API URL", "Provide a URL of Tracardi instance to send event with answer.", "text", "API URL"),
				field("event_type", "Event type", "Please provide a type of event to be sent back.", "text", "Event type"),
				saveEventField(),
			},
		},
	)
}

type CTAConfig struct {
	Title        string `json:"title"`
	Message      string `json:"message" validate:"required"`
	CTAButton    string `json:"cta_button" validate:"required"`
	CTALink      string `json:"cta_link"`
	CancelButton string `json:"cancel_button"`
	BorderRadius int    `json:"border_radius"`
	BorderShadow int    `json:"border_shadow"`
	MinWidth     int    `json:"min_width"`
	MaxWidth     int    `json:"max_width"`
	HideAfter    int    `json:"hide_after"`
	PositionX    string `json:"position_x"`
	PositionY    string `json:"position_y"`
}

func defaultCTA() CTAConfig {
	return CTAConfig{
		BorderRadius: 2,
		BorderShadow: 1,
		MinWidth:     300,
		MaxWidth:     500,
		HideAfter:    6000,
		PositionX:    "right",
		PositionY:    "bottom",
	}
}

type CTAMessage struct {
	widget
	config CTAConfig
}

func (w *CTAMessage) Validate(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
	cfg, err := decode(config, defaultCTA())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (w *CTAMessage) SetUp(_ context.Context, init actiongate.Document) (err error) {
	if w.config, err = decode(init, defaultCTA()); err != nil {
		return err
	}
	return w.setUpLocation()
}

// Run does not render templates; the message is shown as configured.
func (w *CTAMessage) Run(_ context.Context, params actiongate.Document) (actiongate.Result, error) {
	return respond(params,
		Fragment{Tag: "div", Props: actiongate.Document{
			"class":              "tracardi-uix-cta-message",
			"data-title":         w.config.Title,
			"data-message":       w.config.Message,
			"data-vertical":      w.config.PositionY,
			"data-horizontal":    w.config.PositionX,
			"data-auto-hide":     w.config.HideAfter,
			"data-cta-button":    w.config.CTAButton,
			"data-cta-link":      w.config.CTALink,
			"data-cancel-button": w.config.CancelButton,
			"data-border-radius": w.config.BorderRadius,
			"data-border-shadow": w.config.BorderShadow,
			"data-min-width":     w.config.MinWidth,
			"data-max-width":     w.config.MaxWidth,
		}},
		script(w.location.Asset("cta-message", "index.js")),
	), nil
}

func ctaPlugin() registry.Plugin {
	return widgetPlugin("CtaMessageUx", "CTA message", "Shows massage CTA button pop-up on the front end.",
		"Risto Kowaczewski", "",
		actiongate.Document{
			"title":         "",
			"message":       "",
			"cta_button":    "",
			"cta_link":      "",
			"cancel_button": "",
			"border_radius": 2,
			"border_shadow": 1,
			"min_width":     300,
			"max_width":     500,
			"hide_after":    6000,
			"position_x":    "right",
			"position_y":    "bottom",
		},
		registry.FormGroup{
			Name: "Widget Message Configuration",
			Fields: []registry.FormField{
				field("title", "Title", "Provide title. Title can be empty the it will no be displayed.", "text", "title"),
				field("message", "Message before CTA button", "Provide message that will be displayed before CTA button.", "textarea", "message"),
				field("cta_button", "CTA button text", "Provide text to be displayed o CTA button.", "text", "CTA button text"),
				field("cta_link", "CTA link", "Provide CTA button link.", "text", "CTA link"),
				field("cancel_button", "Cancel button text", "Provide CANCEL button text. If empty the button will not be displayed.", "text", "Cancel text"),
				field("hide_after", "Hide message after", "Type number of milliseconds the message must be visible. Default: 6000. 6sec.", "text", "hide after"),
			},
		},
		registry.FormGroup{
			Name: "Widget Position and Width",
			Fields: []registry.FormField{
				verticalField("position_y", "Select where would you like to place the message."),
				horizontalField("position_x", "Select where would you like to place the message."),
				field("min_width", "Minimal width", "Minimal width of the pop-up window.", "text", "minimal width"),
				field("max_width", "Maximal width", "Maximal width of the pop-up window.", "text", "maximal width"),
			},
		},
	)
}

type ContactConfig struct {
	APIURL        string `json:"api_url" validate:"required"`
	Content       string `json:"content" validate:"required"`
	ContactType   string `json:"contact_type" validate:"oneof=email phone"`
	HorizontalPos string `json:"horizontal_pos"`
	VerticalPos   string `json:"vertical_pos"`
	EventType     string `json:"event_type" validate:"required"`
	SaveEvent     bool   `json:"save_event"`
	DarkTheme     bool   `json:"dark_theme"`
}

func defaultContact() ContactConfig {
	return ContactConfig{
		APIURL:        "http://localhost:8686",
		ContactType:   "email",
		HorizontalPos: "center",
		VerticalPos:   "bottom",
		SaveEvent:     true,
	}
}

type ContactPopup struct {
	widget
	config ContactConfig
}

func (w *ContactPopup) Validate(_ context.Context, config, _ actiongate.Document) (interface{}, error) {
	cfg, err := decode(config, defaultContact())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (w *ContactPopup) SetUp(_ context.Context, init actiongate.Document) (err error) {
	if w.config, err = decode(init, defaultContact()); err != nil {
		return err
	}
	return w.setUpLocation()
}

func (w *ContactPopup) Run(_ context.Context, params actiongate.Document) (actiongate.Result, error) {
	v := visitorOf(params)
	return respond(params,
		Fragment{Tag: "link", Props: actiongate.Document{
			"rel":  "stylesheet",
			"href": w.location.Asset("contact-popup", "index.css"),
		}},
		Fragment{Tag: "div", Props: actiongate.Document{
			"class":                    "tracardi-uix-contact-widget",
			"data-message":             w.dot(params).Render(w.config.Content),
			"data-contact-type":        w.config.ContactType,
			"data-api-url":             w.config.APIURL,
			"data-source-id":           v.source,
			"data-profile-id":          v.profile,
			"data-session-id":          v.session,
			"data-event-type":          w.config.EventType,
			"data-theme":               theme(w.config.DarkTheme),
			"data-position-horizontal": w.config.HorizontalPos,
			"data-position-vertical":   w.config.VerticalPos,
			"data-save-event":          yesNo(w.config.SaveEvent),
		}},
		script(w.location.Asset("contact-popup", "index.js")),
	), nil
}

func contactPlugin() registry.Plugin {
	return widgetPlugin("ContactPopupPlugin", "Contact form", "Shows a popup with field for contact data to user, according to configuration.",
		"Dawid Kruk, Risto Kowaczewski", "contact_popup_action",
		actiongate.Document{
			"api_url":        "http://localhost:8686",
			"content":        nil,
			"contact_type":   "email",
			"horizontal_pos": "center",
			"vertical_pos":   "bottom",
			"event_type":     nil,
			"save_event":     true,
			"dark_theme":     false,
		},
		registry.FormGroup{
			Name: "Contact form configuration",
			Fields: []registry.FormField{
				field("content", "Popup message", "That's the message to be displayed in the popup. You can use a template here.", "textarea", "Message"),
				selectField("contact_type", "Contact data type", "Please select type of the contact data to be provided by user.", "Contact",
					actiongate.Document{"email": "Email", "phone": "Phone number"}),
			},
		},
		registry.FormGroup{
			Name: "Positioning and Styling",
			Fields: []registry.FormField{
				horizontalField("horizontal_pos", "That's the horizontal position of your popup."),
				verticalField("vertical_pos", "That's the vertical position of your popup."),
				darkThemeField(),
			},
		},
		registry.FormGroup{
			Name:        "Event configuration",
			Description: "When the user fills the form an event with its content will be sent back to Tracardi.",
			Fields: []registry.FormField{
				field("api_url", "API URL", "Provide a URL of Tracardi instance to send event with contact information.", "text", "API URL"),
				field("event_type", "Event type", "Please provide a type of event to be sent back after submitting contact data by the user.", "text", "Event type"),
				saveEventField(),
			},
		},
	)
}
